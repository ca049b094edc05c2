package grpc

import (
	"github.com/bibbank/appraisal/internal/application/dto"
)

// Request messages. The tenant always comes from the caller's token, so
// none of them carries one.

// ApplicationRequest names one application.
type ApplicationRequest struct {
	ApplicationID string `json:"applicationId"`
}

// CreateApplicationRequest opens an application.
type CreateApplicationRequest struct {
	dto.CreateApplicationRequest
}

// ListApplicationsRequest pages through the caller's applications.
type ListApplicationsRequest struct {
	Status   string `json:"status,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// UpdateFinancialsRequest patches the declared financials.
type UpdateFinancialsRequest struct {
	dto.UpdateFinancialsRequest
}

// RecordDecisionRequest records one stage's decision. Author defaults to
// the caller.
type RecordDecisionRequest struct {
	dto.RecordDecisionRequest
}

// PlanVisitRequest schedules the field visit.
type PlanVisitRequest struct {
	dto.PlanVisitRequest
}

// CancelApplicationRequest withdraws an application.
type CancelApplicationRequest struct {
	dto.CancelApplicationRequest
}

// ComputeScheduleRequest evaluates either a stored application, when
// ApplicationID is set, or the inline loan terms.
type ComputeScheduleRequest struct {
	ApplicationID string `json:"applicationId,omitempty"`
	dto.ComputeScheduleRequest
}

// ComputeRatiosRequest evaluates a stored application or inline financials.
type ComputeRatiosRequest struct {
	ApplicationID string `json:"applicationId,omitempty"`
	dto.ComputeRatiosRequest
}

// ComputeScoreRequest scores a stored application or an inline request.
type ComputeScoreRequest struct {
	ApplicationID string `json:"applicationId,omitempty"`
	dto.ComputeScoreRequest
}

// StatisticsRequest asks for the caller's portfolio statistics.
type StatisticsRequest struct{}
