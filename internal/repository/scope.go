package repository

import (
	"fmt"
	"strings"

	"github.com/vital-portal/vital/internal/domain"
)

// Scope restricts a listing to one jurisdiction at a given level.
type Scope struct {
	Level        domain.Level
	Jurisdiction domain.Jurisdiction
}

// ScopeFor derives the listing scope of a principal.
func ScopeFor(p domain.Principal) *Scope {
	return &Scope{Level: p.Role.Scope(), Jurisdiction: p.Jurisdiction}
}

// where accumulates SQL predicates and their positional arguments.
type where struct {
	clauses []string
	args    []any
}

func newWhere() *where {
	return &where{clauses: []string{"1=1"}}
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(format string, values ...any) {
	placeholders := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = w.arg(v)
	}
	w.clauses = append(w.clauses, fmt.Sprintf(format, placeholders...))
}

func (w *where) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = w.arg(v)
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

// unit matches one administrative unit: ids when the caller has one,
// otherwise the case-insensitive name.
func (w *where) unit(idCol, nameCol, id, name string) {
	switch {
	case id != "" && name != "":
		w.add(fmt.Sprintf("(%s = %%s OR (%s = '' AND lower(%s) = lower(%%s)))", idCol, idCol, nameCol), id, strings.TrimSpace(name))
	case id != "":
		w.add(idCol+" = %s", id)
	default:
		w.add("lower("+nameCol+") = lower(%s)", strings.TrimSpace(name))
	}
}

// scope narrows rows to a jurisdiction. Callers still check Principal.CanAccess
// on the results; this only keeps the scan small.
func (w *where) scope(s *Scope) {
	if s == nil {
		return
	}
	j := s.Jurisdiction
	switch s.Level {
	case domain.LevelGlobal:
		return
	case domain.LevelDistrict:
		w.unit("district_id", "district", j.DistrictID, j.District)
	case domain.LevelTaluk:
		w.unit("district_id", "district", j.DistrictID, j.District)
		w.unit("taluk_id", "taluk", j.TalukID, j.Taluk)
	case domain.LevelPanchayat:
		if j.PanchayatID != "" {
			w.unit("panchayat_id", "panchayat_name", j.PanchayatID, j.PanchayatName)
			return
		}
		w.unit("panchayat_id", "panchayat_name", "", j.PanchayatName)
		w.unit("taluk_id", "taluk", "", j.Taluk)
		w.unit("district_id", "district", "", j.District)
	}
}

func (w *where) String() string {
	return strings.Join(w.clauses, " AND ")
}

// MaxPageSize caps a single listing; report exports page through in steps of this size.
const MaxPageSize = 10000

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
