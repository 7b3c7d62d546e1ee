package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the rebalancer service
const ServiceName = "wealthflow.rebalancer.v1.RebalancerService"

// Method names of the rebalancer service
const (
	MethodCreateWallet         = "CreateWallet"
	MethodAddAsset             = "AddAsset"
	MethodRecordPrice          = "RecordPrice"
	MethodPlanAssetPurchase    = "PlanAssetPurchase"
	MethodApplyAssetPurchase   = "ApplyAssetPurchase"
	MethodPlanCashDistribution = "PlanCashDistribution"
	MethodGetPortfolioSummary  = "GetPortfolioSummary"
	MethodAllocateDiscrete     = "AllocateDiscrete"
	MethodAllocateProportional = "AllocateProportional"
)

// RebalancerServiceServer is the server API of the rebalancer service.
// Every method takes and returns a google.protobuf.Struct holding a JSON object.
type RebalancerServiceServer interface {
	CreateWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PlanAssetPurchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyAssetPurchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PlanCashDistribution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPortfolioSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AllocateDiscrete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AllocateProportional(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(RebalancerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RebalancerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RebalancerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the rebalancer service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RebalancerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodCreateWallet, RebalancerServiceServer.CreateWallet),
		unaryHandler(MethodAddAsset, RebalancerServiceServer.AddAsset),
		unaryHandler(MethodRecordPrice, RebalancerServiceServer.RecordPrice),
		unaryHandler(MethodPlanAssetPurchase, RebalancerServiceServer.PlanAssetPurchase),
		unaryHandler(MethodApplyAssetPurchase, RebalancerServiceServer.ApplyAssetPurchase),
		unaryHandler(MethodPlanCashDistribution, RebalancerServiceServer.PlanCashDistribution),
		unaryHandler(MethodGetPortfolioSummary, RebalancerServiceServer.GetPortfolioSummary),
		unaryHandler(MethodAllocateDiscrete, RebalancerServiceServer.AllocateDiscrete),
		unaryHandler(MethodAllocateProportional, RebalancerServiceServer.AllocateProportional),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wealthflow/rebalancer/v1/rebalancer.proto",
}

// RegisterRebalancerServiceServer registers srv on s
func RegisterRebalancerServiceServer(s grpc.ServiceRegistrar, srv RebalancerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the rebalancer service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new rebalancer client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req and returns the response body
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
