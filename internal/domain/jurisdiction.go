package domain

import "strings"

// Level is a rung of the administrative hierarchy.
type Level int

const (
	LevelPanchayat Level = iota
	LevelTaluk
	LevelDistrict
	LevelGlobal
)

// Jurisdiction locates an issue, request, or authority.
// Ids are authoritative; names are the fallback when an id is absent on either side.
type Jurisdiction struct {
	District      string
	DistrictID    string
	Taluk         string
	TalukID       string
	PanchayatID   string
	PanchayatName string
}

// Covers reports whether a holder of j scoped at level may act on target.
func (j Jurisdiction) Covers(level Level, target Jurisdiction) bool {
	switch level {
	case LevelGlobal:
		return true
	case LevelDistrict:
		return sameUnit(j.DistrictID, target.DistrictID, j.District, target.District)
	case LevelTaluk:
		return sameUnit(j.DistrictID, target.DistrictID, j.District, target.District) &&
			sameUnit(j.TalukID, target.TalukID, j.Taluk, target.Taluk)
	case LevelPanchayat:
		if j.PanchayatID != "" && target.PanchayatID != "" {
			return j.PanchayatID == target.PanchayatID
		}
		return sameName(j.PanchayatName, target.PanchayatName) &&
			sameName(j.Taluk, target.Taluk) &&
			sameName(j.District, target.District)
	}
	return false
}

// PanchayatLabel is the display name of the panchayat, falling back to its id.
func (j Jurisdiction) PanchayatLabel() string {
	if name := strings.TrimSpace(j.PanchayatName); name != "" {
		return name
	}
	return strings.TrimSpace(j.PanchayatID)
}

func sameUnit(idA, idB, nameA, nameB string) bool {
	if idA != "" && idB != "" {
		return idA == idB
	}
	return sameName(nameA, nameB)
}

func sameName(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// NormalizeJurisdiction folds the loosely named fields found in stored documents
// and client payloads into a Jurisdiction.
func NormalizeJurisdiction(doc map[string]any) Jurisdiction {
	return Jurisdiction{
		District:      firstString(doc, "district", "districtName"),
		DistrictID:    firstString(doc, "districtId"),
		Taluk:         firstString(doc, "taluk", "talukName"),
		TalukID:       firstString(doc, "talukId"),
		PanchayatID:   firstString(doc, "panchayatId", "gramPanchayatId"),
		PanchayatName: firstString(doc, "panchayatName", "panchayat", "gramPanchayat", "gramPanchayatName"),
	}
}

func firstString(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
