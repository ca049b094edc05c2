package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/port"
)

const defaultPageSize = 50

// GetApplicationUseCase retrieves an application by ID.
type GetApplicationUseCase struct {
	appRepo port.ApplicationRepository
}

// NewGetApplicationUseCase wires dependencies.
func NewGetApplicationUseCase(appRepo port.ApplicationRepository) *GetApplicationUseCase {
	return &GetApplicationUseCase{appRepo: appRepo}
}

// Execute returns the application with its decisions.
func (uc *GetApplicationUseCase) Execute(ctx context.Context, req dto.ApplicationRef) (dto.ApplicationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	app, err := uc.appRepo.FindByID(ctx, req.TenantID, req.ApplicationID)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("find application: %w", err)
	}
	return toApplicationResponse(app), nil
}

// ListApplicationsUseCase pages through a tenant's applications.
type ListApplicationsUseCase struct {
	appRepo port.ApplicationRepository
}

// NewListApplicationsUseCase wires dependencies.
func NewListApplicationsUseCase(appRepo port.ApplicationRepository) *ListApplicationsUseCase {
	return &ListApplicationsUseCase{appRepo: appRepo}
}

// Execute lists applications, most recent first.
func (uc *ListApplicationsUseCase) Execute(
	ctx context.Context,
	req dto.ListApplicationsRequest,
) (dto.ListApplicationsResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ListApplicationsResponse{}, err
	}
	if req.Limit == 0 {
		req.Limit = defaultPageSize
	}
	apps, err := uc.appRepo.List(ctx, req.TenantID, port.ApplicationFilter{
		Status:   req.Status,
		ClientID: req.ClientID,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return dto.ListApplicationsResponse{}, fmt.Errorf("list applications: %w", err)
	}

	resp := dto.ListApplicationsResponse{
		Applications: make([]dto.ApplicationResponse, 0, len(apps)),
		Limit:        req.Limit,
		Offset:       req.Offset,
	}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, toApplicationResponse(app))
	}
	return resp, nil
}

// GetStatisticsUseCase summarises a tenant's portfolio.
type GetStatisticsUseCase struct {
	appRepo port.ApplicationRepository
}

// NewGetStatisticsUseCase wires dependencies.
func NewGetStatisticsUseCase(appRepo port.ApplicationRepository) *GetStatisticsUseCase {
	return &GetStatisticsUseCase{appRepo: appRepo}
}

// Execute returns counts by status and the requested and approved totals.
func (uc *GetStatisticsUseCase) Execute(ctx context.Context, req dto.StatisticsRequest) (dto.StatisticsResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.StatisticsResponse{}, err
	}
	stats, err := uc.appRepo.Statistics(ctx, req.TenantID)
	if err != nil {
		return dto.StatisticsResponse{}, fmt.Errorf("compute statistics: %w", err)
	}
	byStatus := stats.ByStatus
	if byStatus == nil {
		byStatus = map[string]int{}
	}
	return dto.StatisticsResponse{
		ByStatus:        byStatus,
		InProgress:      stats.InProgress,
		Total:           stats.Total,
		RequestedAmount: stats.RequestedAmount,
		ApprovedAmount:  stats.ApprovedAmount,
	}, nil
}
