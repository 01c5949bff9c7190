package dto

import (
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// CreateFundRequestRequest payload.
type CreateFundRequestRequest struct {
	IssueID     string  `json:"issueId"`
	Amount      float64 `json:"amount"`
	Reason      string  `json:"reason"`
	Description string  `json:"description"`
}

// FundDecisionRequest is a TDO's decision. ApprovedAmount defaults to the
// requested amount on approval.
type FundDecisionRequest struct {
	Decision       domain.FundDecision `json:"decision"`
	ApprovedAmount *float64            `json:"approvedAmount"`
	Comment        string              `json:"comment"`
}

// FundRequestResponse is the fund request document.
type FundRequestResponse struct {
	ID              string                   `json:"id"`
	IssueID         *string                  `json:"issueId,omitempty"`
	Amount          float64                  `json:"amount"`
	ApprovedAmount  *float64                 `json:"approvedAmount,omitempty"`
	Reason          string                   `json:"reason"`
	Description     string                   `json:"description,omitempty"`
	Jurisdiction    JurisdictionResponse     `json:"jurisdiction"`
	Status          domain.FundRequestStatus `json:"status"`
	RequestedBy     string                   `json:"requestedBy"`
	RequestedByRole domain.Role              `json:"requestedByRole"`
	DecidedBy       *string                  `json:"decidedBy,omitempty"`
	TDOComment      *string                  `json:"tdoComment,omitempty"`
	RejectionReason *string                  `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	DecidedAt       *time.Time               `json:"decidedAt,omitempty"`
}

// NewFundRequestResponse maps a fund request.
func NewFundRequestResponse(req *domain.FundRequest) FundRequestResponse {
	return FundRequestResponse{
		ID:              req.ID,
		IssueID:         req.IssueID,
		Amount:          req.Amount,
		ApprovedAmount:  req.ApprovedAmount,
		Reason:          req.Reason,
		Description:     req.Description,
		Jurisdiction:    NewJurisdictionResponse(req.Jurisdiction),
		Status:          req.Status,
		RequestedBy:     req.RequestedBy,
		RequestedByRole: req.RequestedByRole,
		DecidedBy:       req.DecidedBy,
		TDOComment:      req.TDOComment,
		RejectionReason: req.RejectionReason,
		CreatedAt:       req.CreatedAt,
		DecidedAt:       req.DecidedAt,
	}
}

// NewFundRequestList maps fund requests.
func NewFundRequestList(requests []*domain.FundRequest) []FundRequestResponse {
	items := make([]FundRequestResponse, 0, len(requests))
	for _, req := range requests {
		items = append(items, NewFundRequestResponse(req))
	}
	return items
}
