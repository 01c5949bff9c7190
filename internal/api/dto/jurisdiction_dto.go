package dto

import "github.com/vital-portal/vital/internal/domain"

// JurisdictionResponse is the wire shape of a jurisdiction.
type JurisdictionResponse struct {
	District      string `json:"district,omitempty"`
	DistrictID    string `json:"districtId,omitempty"`
	Taluk         string `json:"taluk,omitempty"`
	TalukID       string `json:"talukId,omitempty"`
	PanchayatID   string `json:"panchayatId,omitempty"`
	PanchayatName string `json:"panchayatName,omitempty"`
}

// JurisdictionPayload accepts every spelling clients send for jurisdiction
// fields (panchayat, gramPanchayat, panchayatName and so on).
type JurisdictionPayload map[string]any

// Normalize folds the payload into a domain jurisdiction.
func (p JurisdictionPayload) Normalize() domain.Jurisdiction {
	return domain.NormalizeJurisdiction(p)
}

// Empty reports whether no jurisdiction field was sent.
func (p JurisdictionPayload) Empty() bool {
	return p.Normalize() == (domain.Jurisdiction{})
}

// NewJurisdictionResponse maps a domain jurisdiction.
func NewJurisdictionResponse(j domain.Jurisdiction) JurisdictionResponse {
	return JurisdictionResponse{
		District:      j.District,
		DistrictID:    j.DistrictID,
		Taluk:         j.Taluk,
		TalukID:       j.TalukID,
		PanchayatID:   j.PanchayatID,
		PanchayatName: j.PanchayatName,
	}
}
