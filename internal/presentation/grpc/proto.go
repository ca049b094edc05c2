package grpc

// proto.go defines the server side of bib.appraisal.v1.AppraisalService.
// Messages travel with the JSON codec, so the request and response types
// are plain Go structs.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bib.appraisal.v1.AppraisalService"

// AppraisalServiceServer is the server API for AppraisalService.
type AppraisalServiceServer interface {
	CreateApplication(context.Context, *CreateApplicationRequest) (*dto.ApplicationResponse, error)
	GetApplication(context.Context, *ApplicationRequest) (*dto.ApplicationResponse, error)
	ListApplications(context.Context, *ListApplicationsRequest) (*dto.ListApplicationsResponse, error)
	UpdateFinancials(context.Context, *UpdateFinancialsRequest) (*dto.ApplicationResponse, error)
	SubmitApplication(context.Context, *ApplicationRequest) (*dto.ApplicationResponse, error)
	RecordDecision(context.Context, *RecordDecisionRequest) (*dto.RecordDecisionResponse, error)
	PlanVisit(context.Context, *PlanVisitRequest) (*dto.ApplicationResponse, error)
	SendToCommittee(context.Context, *ApplicationRequest) (*dto.ApplicationResponse, error)
	CancelApplication(context.Context, *CancelApplicationRequest) (*dto.ApplicationResponse, error)
	ComputeSchedule(context.Context, *ComputeScheduleRequest) (*dto.ScheduleResponse, error)
	ComputeRatios(context.Context, *ComputeRatiosRequest) (*model.RatioSet, error)
	ComputeScore(context.Context, *ComputeScoreRequest) (*model.CreditScore, error)
	GetStatistics(context.Context, *StatisticsRequest) (*dto.StatisticsResponse, error)
	mustEmbedUnimplementedAppraisalServiceServer()
}

// UnimplementedAppraisalServiceServer provides forward-compatible default
// implementations.
type UnimplementedAppraisalServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedAppraisalServiceServer) CreateApplication(context.Context, *CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("CreateApplication")
}
func (UnimplementedAppraisalServiceServer) GetApplication(context.Context, *ApplicationRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("GetApplication")
}
func (UnimplementedAppraisalServiceServer) ListApplications(context.Context, *ListApplicationsRequest) (*dto.ListApplicationsResponse, error) {
	return nil, unimplemented("ListApplications")
}
func (UnimplementedAppraisalServiceServer) UpdateFinancials(context.Context, *UpdateFinancialsRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("UpdateFinancials")
}
func (UnimplementedAppraisalServiceServer) SubmitApplication(context.Context, *ApplicationRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("SubmitApplication")
}
func (UnimplementedAppraisalServiceServer) RecordDecision(context.Context, *RecordDecisionRequest) (*dto.RecordDecisionResponse, error) {
	return nil, unimplemented("RecordDecision")
}
func (UnimplementedAppraisalServiceServer) PlanVisit(context.Context, *PlanVisitRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("PlanVisit")
}
func (UnimplementedAppraisalServiceServer) SendToCommittee(context.Context, *ApplicationRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("SendToCommittee")
}
func (UnimplementedAppraisalServiceServer) CancelApplication(context.Context, *CancelApplicationRequest) (*dto.ApplicationResponse, error) {
	return nil, unimplemented("CancelApplication")
}
func (UnimplementedAppraisalServiceServer) ComputeSchedule(context.Context, *ComputeScheduleRequest) (*dto.ScheduleResponse, error) {
	return nil, unimplemented("ComputeSchedule")
}
func (UnimplementedAppraisalServiceServer) ComputeRatios(context.Context, *ComputeRatiosRequest) (*model.RatioSet, error) {
	return nil, unimplemented("ComputeRatios")
}
func (UnimplementedAppraisalServiceServer) ComputeScore(context.Context, *ComputeScoreRequest) (*model.CreditScore, error) {
	return nil, unimplemented("ComputeScore")
}
func (UnimplementedAppraisalServiceServer) GetStatistics(context.Context, *StatisticsRequest) (*dto.StatisticsResponse, error) {
	return nil, unimplemented("GetStatistics")
}
func (UnimplementedAppraisalServiceServer) mustEmbedUnimplementedAppraisalServiceServer() {}

// RegisterAppraisalServiceServer registers srv with the gRPC server.
func RegisterAppraisalServiceServer(s grpclib.ServiceRegistrar, srv AppraisalServiceServer) {
	s.RegisterService(&appraisalServiceDesc, srv)
}

var appraisalServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AppraisalServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("CreateApplication", AppraisalServiceServer.CreateApplication),
		unary("GetApplication", AppraisalServiceServer.GetApplication),
		unary("ListApplications", AppraisalServiceServer.ListApplications),
		unary("UpdateFinancials", AppraisalServiceServer.UpdateFinancials),
		unary("SubmitApplication", AppraisalServiceServer.SubmitApplication),
		unary("RecordDecision", AppraisalServiceServer.RecordDecision),
		unary("PlanVisit", AppraisalServiceServer.PlanVisit),
		unary("SendToCommittee", AppraisalServiceServer.SendToCommittee),
		unary("CancelApplication", AppraisalServiceServer.CancelApplication),
		unary("ComputeSchedule", AppraisalServiceServer.ComputeSchedule),
		unary("ComputeRatios", AppraisalServiceServer.ComputeRatios),
		unary("ComputeScore", AppraisalServiceServer.ComputeScore),
		unary("GetStatistics", AppraisalServiceServer.GetStatistics),
	},
	Streams: []grpclib.StreamDesc{},
}

// unary builds the method descriptor of one unary RPC. The handler decodes
// the request, then runs call directly or through the interceptor chain.
func unary[Req, Resp any](
	method string,
	call func(AppraisalServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpclib.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AppraisalServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AppraisalServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
