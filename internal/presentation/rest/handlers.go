package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/application/usecase"
	"github.com/bibbank/appraisal/internal/presentation/authz"
)

// Handlers groups the appraisal HTTP handlers and their dependencies.
type Handlers struct {
	uc     *usecase.Set
	logger *slog.Logger
}

// NewHandlers creates the appraisal HTTP handlers.
func NewHandlers(uc *usecase.Set, logger *slog.Logger) *Handlers {
	return &Handlers{uc: uc, logger: logger}
}

// authorize resolves the caller or answers the request with 401/403.
func (h *Handlers) authorize(w http.ResponseWriter, r *http.Request, roles ...string) (authz.Caller, bool) {
	caller, err := authz.Authorize(r.Context(), roles...)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return authz.Caller{}, false
	}
	return caller, true
}

func applicationRef(caller authz.Caller, r *http.Request) dto.ApplicationRef {
	return dto.ApplicationRef{TenantID: caller.TenantID, ApplicationID: chi.URLParam(r, "id")}
}

func queryInt(r *http.Request, key string) (int, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

// --- evaluations ---

func (h *Handlers) ComputeSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, authz.Evaluators...); !ok {
		return
	}
	var req dto.ComputeScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.uc.Schedule.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ComputeRatios(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, authz.Evaluators...); !ok {
		return
	}
	var req dto.ComputeRatiosRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.uc.Ratios.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ComputeScore(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, authz.Evaluators...); !ok {
		return
	}
	var req dto.ComputeScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.uc.Score.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ApplicationSchedule(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Readers...)
	if !ok {
		return
	}
	resp, err := h.uc.Schedule.ExecuteForApplication(r.Context(), applicationRef(caller, r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ApplicationRatios(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Readers...)
	if !ok {
		return
	}
	resp, err := h.uc.Ratios.ExecuteForApplication(r.Context(), applicationRef(caller, r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ApplicationScore(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Readers...)
	if !ok {
		return
	}
	resp, err := h.uc.Score.ExecuteForApplication(r.Context(), applicationRef(caller, r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- applications ---

func (h *Handlers) CreateApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Originators...)
	if !ok {
		return
	}
	var req dto.CreateApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.TenantID = caller.TenantID
	resp, err := h.uc.Create.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/applications/"+resp.ID)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Readers...)
	if !ok {
		return
	}
	limit, okLimit := queryInt(r, "limit")
	offset, okOffset := queryInt(r, "offset")
	if !okLimit || !okOffset {
		writeError(w, http.StatusBadRequest, "limit and offset must be integers")
		return
	}
	q := r.URL.Query()
	resp, err := h.uc.List.Execute(r.Context(), dto.ListApplicationsRequest{
		TenantID: caller.TenantID,
		Status:   q.Get("status"),
		ClientID: q.Get("clientId"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Readers...)
	if !ok {
		return
	}
	resp, err := h.uc.Get.Execute(r.Context(), applicationRef(caller, r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) UpdateFinancials(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Originators...)
	if !ok {
		return
	}
	var req dto.UpdateFinancialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ApplicationRef = applicationRef(caller, r)
	resp, err := h.uc.UpdateFinancials.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Originators...)
	if !ok {
		return
	}
	resp, err := h.uc.Submit.Execute(r.Context(), applicationRef(caller, r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordDecision upserts the decision of the stage named in the path.
func (h *Handlers) RecordDecision(w http.ResponseWriter, r *http.Request) {
	stage := chi.URLParam(r, "stage")
	roles, err := authz.StageRoles(stage)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	caller, ok := h.authorize(w, r, roles...)
	if !ok {
		return
	}
	var req dto.RecordDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ApplicationRef = applicationRef(caller, r)
	req.Stage = stage
	if req.Author == "" {
		req.Author = caller.Author()
	}
	resp, err := h.uc.RecordDecision.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) PlanVisit(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Originators...)
	if !ok {
		return
	}
	var req dto.PlanVisitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ApplicationRef = applicationRef(caller, r)
	resp, err := h.uc.PlanVisit.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) SendToCommittee(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Supervisors...)
	if !ok {
		return
	}
	resp, err := h.uc.SendToCommittee.Execute(r.Context(), applicationRef(caller, r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) CancelApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Originators...)
	if !ok {
		return
	}
	var req dto.CancelApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ApplicationRef = applicationRef(caller, r)
	resp, err := h.uc.Cancel.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, authz.Readers...)
	if !ok {
		return
	}
	resp, err := h.uc.Statistics.Execute(r.Context(), dto.StatisticsRequest{TenantID: caller.TenantID})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
