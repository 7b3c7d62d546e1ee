package grpc

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/wealthflow-rebalancer/internal/adapter/api"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/dashboard"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/wallet"
)

// Server implements the RebalancerService gRPC server
type Server struct {
	WalletService    *wallet.WalletService
	PricingService   *pricing.PricingService
	InvestingService *investing.InvestingService
	DashboardService *dashboard.DashboardService
	log              zerolog.Logger
}

var _ RebalancerServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	walletService *wallet.WalletService,
	pricingService *pricing.PricingService,
	investingService *investing.InvestingService,
	dashboardService *dashboard.DashboardService,
	log zerolog.Logger,
) *Server {
	return &Server{
		WalletService:    walletService,
		PricingService:   pricingService,
		InvestingService: investingService,
		DashboardService: dashboardService,
		log:              log.With().Str("handler", "grpc").Logger(),
	}
}

// CreateWallet handles the CreateWallet RPC
func (s *Server) CreateWallet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.CreateWalletRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	w, err := s.WalletService.CreateWallet(ctx, wallet.CreateWalletInput{
		Name:            in.Name,
		IdealPercentage: in.IdealPercentage,
	})
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewWallet(w))
}

// AddAsset handles the AddAsset RPC
func (s *Server) AddAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.AddAssetRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	asset, err := s.WalletService.AddAsset(ctx, wallet.AddAssetInput{
		WalletID:   in.WalletID,
		Name:       in.Name,
		Kind:       domain.AssetKind(in.Kind),
		Amount:     in.Amount,
		FixedPrice: in.FixedPrice,
	})
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewAsset(asset))
}

// RecordPrice handles the RecordPrice RPC
func (s *Server) RecordPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.RecordPriceRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	quote, err := s.PricingService.RecordPrice(ctx, in.AssetID, in.Price)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewPriceQuote(quote))
}

// PlanAssetPurchase handles the PlanAssetPurchase RPC
func (s *Server) PlanAssetPurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.PlanAssetPurchaseRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	plan, err := s.InvestingService.PlanAssetPurchase(ctx, in.WalletID, in.Cash, in.Blacklist)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewAssetPurchasePlan(plan))
}

// ApplyAssetPurchase handles the ApplyAssetPurchase RPC
func (s *Server) ApplyAssetPurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.ApplyAssetPurchaseRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	result, err := s.InvestingService.ApplyAssetPurchase(ctx, in.WalletID, in.Cash, in.Blacklist, in.Description)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewApplyAssetPurchaseResponse(result))
}

// PlanCashDistribution handles the PlanCashDistribution RPC
func (s *Server) PlanCashDistribution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.PlanCashDistributionRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	plan, err := s.InvestingService.PlanCashDistribution(ctx, in.Cash, in.Blacklist)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewDistributionPlan(plan))
}

// GetPortfolioSummary handles the GetPortfolioSummary RPC
func (s *Server) GetPortfolioSummary(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.DashboardService.GetPortfolioSummary(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(api.NewPortfolioSummary(summary))
}

// AllocateDiscrete handles the AllocateDiscrete RPC. It touches no storage.
func (s *Server) AllocateDiscrete(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.AllocateDiscreteRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	plan, err := api.AllocateDiscrete(in)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(plan)
}

// AllocateProportional handles the AllocateProportional RPC. It touches no storage.
func (s *Server) AllocateProportional(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.AllocateProportionalRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	plan, err := api.AllocateProportional(in)
	if err != nil {
		return nil, s.fail(err)
	}

	return encode(plan)
}

// decode reads a Struct body into a request message
func decode(req *structpb.Struct, v any) error {
	data, err := req.MarshalJSON()
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request body: %v", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request body: %v", err)
	}

	return nil
}

// encode turns a response message into a Struct body
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	return out, nil
}

// fail maps err to a status error, logging the ones the caller cannot fix
func (s *Server) fail(err error) error {
	st := mapError(err)
	if status.Code(st) == codes.Internal {
		s.log.Error().Err(err).Msg("Request failed")
	}
	return st
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch api.Classify(err) {
	case api.KindInvalid:
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case api.KindNotFound:
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case api.KindConflict:
		return status.Errorf(codes.AlreadyExists, "%s", err.Error())
	default:
		return status.Errorf(codes.Internal, "%s", err.Error())
	}
}
