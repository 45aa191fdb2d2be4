package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wellness.insights.v1.SurveyInsights"

const (
	getInsightsMethod  = "/" + ServiceName + "/GetInsights"
	exportReportMethod = "/" + ServiceName + "/ExportReport"
)

// SurveyInsightsServer is the server API. Requests and responses are
// google.protobuf.Struct documents.
type SurveyInsightsServer interface {
	GetInsights(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSurveyInsightsServer(s grpc.ServiceRegistrar, srv SurveyInsightsServer) {
	s.RegisterService(&SurveyInsightsServiceDesc, srv)
}

func getInsightsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SurveyInsightsServer).GetInsights(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getInsightsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SurveyInsightsServer).GetInsights(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func exportReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SurveyInsightsServer).ExportReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: exportReportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SurveyInsightsServer).ExportReport(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SurveyInsightsServiceDesc describes the service for grpc.Server.RegisterService.
var SurveyInsightsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SurveyInsightsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetInsights", Handler: getInsightsHandler},
		{MethodName: "ExportReport", Handler: exportReportHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wellness/insights/v1/insights.proto",
}

// SurveyInsightsClient is the client API of the service.
type SurveyInsightsClient interface {
	GetInsights(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ExportReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type surveyInsightsClient struct {
	cc grpc.ClientConnInterface
}

func NewSurveyInsightsClient(cc grpc.ClientConnInterface) SurveyInsightsClient {
	return &surveyInsightsClient{cc: cc}
}

func (c *surveyInsightsClient) GetInsights(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getInsightsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *surveyInsightsClient) ExportReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, exportReportMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
