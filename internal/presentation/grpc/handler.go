package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/application/usecase"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/internal/presentation/authz"
)

// AppraisalHandler is the gRPC handler for appraisal operations.
type AppraisalHandler struct {
	UnimplementedAppraisalServiceServer
	uc     *usecase.Set
	logger *slog.Logger
}

// NewAppraisalHandler creates a handler over the given use cases.
func NewAppraisalHandler(uc *usecase.Set, logger *slog.Logger) *AppraisalHandler {
	return &AppraisalHandler{uc: uc, logger: logger}
}

func (h *AppraisalHandler) ref(caller authz.Caller, id string) dto.ApplicationRef {
	return dto.ApplicationRef{TenantID: caller.TenantID, ApplicationID: id}
}

// CreateApplication opens an application for the caller's tenant.
func (h *AppraisalHandler) CreateApplication(ctx context.Context, req *CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Originators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	in := req.CreateApplicationRequest
	in.TenantID = caller.TenantID
	resp, err := h.uc.Create.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// GetApplication returns one application.
func (h *AppraisalHandler) GetApplication(ctx context.Context, req *ApplicationRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Readers...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp, err := h.uc.Get.Execute(ctx, h.ref(caller, req.ApplicationID))
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// ListApplications pages through the caller's applications.
func (h *AppraisalHandler) ListApplications(ctx context.Context, req *ListApplicationsRequest) (*dto.ListApplicationsResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Readers...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp, err := h.uc.List.Execute(ctx, dto.ListApplicationsRequest{
		TenantID: caller.TenantID,
		Status:   req.Status,
		ClientID: req.ClientID,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// UpdateFinancials patches the declared financials of a draft.
func (h *AppraisalHandler) UpdateFinancials(ctx context.Context, req *UpdateFinancialsRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Originators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	in := req.UpdateFinancialsRequest
	in.TenantID = caller.TenantID
	resp, err := h.uc.UpdateFinancials.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// SubmitApplication submits a draft for appraisal.
func (h *AppraisalHandler) SubmitApplication(ctx context.Context, req *ApplicationRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Originators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp, err := h.uc.Submit.Execute(ctx, h.ref(caller, req.ApplicationID))
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// RecordDecision records a stage decision. Only the stage's roles may
// record it.
func (h *AppraisalHandler) RecordDecision(ctx context.Context, req *RecordDecisionRequest) (*dto.RecordDecisionResponse, error) {
	roles, err := authz.StageRoles(req.Stage)
	if err != nil {
		return nil, h.toStatus(err)
	}
	caller, err := authz.Authorize(ctx, roles...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	in := req.RecordDecisionRequest
	in.TenantID = caller.TenantID
	if in.Author == "" {
		in.Author = caller.Author()
	}
	resp, err := h.uc.RecordDecision.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// PlanVisit schedules the field visit.
func (h *AppraisalHandler) PlanVisit(ctx context.Context, req *PlanVisitRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Originators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	in := req.PlanVisitRequest
	in.TenantID = caller.TenantID
	resp, err := h.uc.PlanVisit.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// SendToCommittee puts an application on the committee agenda.
func (h *AppraisalHandler) SendToCommittee(ctx context.Context, req *ApplicationRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Supervisors...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp, err := h.uc.SendToCommittee.Execute(ctx, h.ref(caller, req.ApplicationID))
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// CancelApplication withdraws an application.
func (h *AppraisalHandler) CancelApplication(ctx context.Context, req *CancelApplicationRequest) (*dto.ApplicationResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Originators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	in := req.CancelApplicationRequest
	in.TenantID = caller.TenantID
	resp, err := h.uc.Cancel.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// ComputeSchedule returns a repayment schedule.
func (h *AppraisalHandler) ComputeSchedule(ctx context.Context, req *ComputeScheduleRequest) (*dto.ScheduleResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Evaluators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	var resp dto.ScheduleResponse
	if req.ApplicationID != "" {
		resp, err = h.uc.Schedule.ExecuteForApplication(ctx, h.ref(caller, req.ApplicationID))
	} else {
		resp, err = h.uc.Schedule.Execute(ctx, req.ComputeScheduleRequest)
	}
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// ComputeRatios returns the ratio analysis.
func (h *AppraisalHandler) ComputeRatios(ctx context.Context, req *ComputeRatiosRequest) (*model.RatioSet, error) {
	caller, err := authz.Authorize(ctx, authz.Evaluators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	var resp model.RatioSet
	if req.ApplicationID != "" {
		resp, err = h.uc.Ratios.ExecuteForApplication(ctx, h.ref(caller, req.ApplicationID))
	} else {
		resp, err = h.uc.Ratios.Execute(ctx, req.ComputeRatiosRequest)
	}
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// ComputeScore returns the credit score.
func (h *AppraisalHandler) ComputeScore(ctx context.Context, req *ComputeScoreRequest) (*model.CreditScore, error) {
	caller, err := authz.Authorize(ctx, authz.Evaluators...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	var resp model.CreditScore
	if req.ApplicationID != "" {
		resp, err = h.uc.Score.ExecuteForApplication(ctx, h.ref(caller, req.ApplicationID))
	} else {
		resp, err = h.uc.Score.Execute(ctx, req.ComputeScoreRequest)
	}
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// GetStatistics returns the caller's portfolio statistics.
func (h *AppraisalHandler) GetStatistics(ctx context.Context, _ *StatisticsRequest) (*dto.StatisticsResponse, error) {
	caller, err := authz.Authorize(ctx, authz.Readers...)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp, err := h.uc.Statistics.Execute(ctx, dto.StatisticsRequest{TenantID: caller.TenantID})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &resp, nil
}

// toStatus maps domain errors to gRPC status codes. Unexpected errors are
// logged and hidden from the caller.
func (h *AppraisalHandler) toStatus(err error) error {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, valueobject.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, valueobject.ErrApplicationNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, valueobject.ErrInvalidStatusTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, valueobject.ErrConcurrentModification):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.Error("appraisal request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
