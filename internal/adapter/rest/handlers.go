// Package rest exposes the rebalancer over a JSON HTTP API
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/simaogato/wealthflow-rebalancer/internal/adapter/api"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/dashboard"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/wallet"
)

// Handlers provides HTTP handlers for the rebalancer endpoints
type Handlers struct {
	walletService    *wallet.WalletService
	pricingService   *pricing.PricingService
	investingService *investing.InvestingService
	dashboardService *dashboard.DashboardService
	log              zerolog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	walletService *wallet.WalletService,
	pricingService *pricing.PricingService,
	investingService *investing.InvestingService,
	dashboardService *dashboard.DashboardService,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		walletService:    walletService,
		pricingService:   pricingService,
		investingService: investingService,
		dashboardService: dashboardService,
		log:              log.With().Str("handler", "rest").Logger(),
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/wallets", func(r chi.Router) {
		r.Get("/", h.ListWallets)
		r.Post("/", h.CreateWallet)
		r.Put("/{id}", h.SetIdealPercentage)
		r.Get("/{id}/assets", h.ListAssets)
		r.Post("/{id}/assets", h.AddAsset)
		r.Post("/{id}/plan", h.PlanAssetPurchase)
		r.Post("/{id}/apply", h.ApplyAssetPurchase)
	})
	r.Post("/assets/{id}/prices", h.RecordPrice)
	r.Post("/distribution/plan", h.PlanCashDistribution)
	r.Get("/portfolio/summary", h.GetPortfolioSummary)
	r.Route("/allocate", func(r chi.Router) {
		r.Post("/discrete", h.AllocateDiscrete)
		r.Post("/proportional", h.AllocateProportional)
	})
}

// ListWallets returns every wallet
func (h *Handlers) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.walletService.ListWallets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]api.Wallet, 0, len(wallets))
	for _, wl := range wallets {
		out = append(out, api.NewWallet(wl))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// CreateWallet creates a wallet
func (h *Handlers) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req api.CreateWalletRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	created, err := h.walletService.CreateWallet(r.Context(), wallet.CreateWalletInput{
		Name:            req.Name,
		IdealPercentage: req.IdealPercentage,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.NewWallet(created))
}

// SetIdealPercentage changes the target share of the wallet in the path
func (h *Handlers) SetIdealPercentage(w http.ResponseWriter, r *http.Request) {
	walletID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req api.SetIdealPercentageRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	updated, err := h.walletService.SetIdealPercentage(r.Context(), walletID, req.IdealPercentage)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewWallet(updated))
}

// ListAssets returns the assets of a wallet
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	walletID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	assets, err := h.walletService.ListAssets(r.Context(), walletID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]api.Asset, 0, len(assets))
	for _, a := range assets {
		out = append(out, api.NewAsset(a))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// AddAsset adds an asset to the wallet in the path
func (h *Handlers) AddAsset(w http.ResponseWriter, r *http.Request) {
	walletID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req api.AddAssetRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	asset, err := h.walletService.AddAsset(r.Context(), wallet.AddAssetInput{
		WalletID:   walletID,
		Name:       req.Name,
		Kind:       domain.AssetKind(req.Kind),
		Amount:     req.Amount,
		FixedPrice: req.FixedPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.NewAsset(asset))
}

// RecordPrice records a quote for the asset in the path
func (h *Handlers) RecordPrice(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req api.RecordPriceRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	quote, err := h.pricingService.RecordPrice(r.Context(), assetID, req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.NewPriceQuote(quote))
}

// PlanAssetPurchase plans a whole-unit purchase for the wallet in the path
func (h *Handlers) PlanAssetPurchase(w http.ResponseWriter, r *http.Request) {
	walletID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req api.PlanAssetPurchaseRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	plan, err := h.investingService.PlanAssetPurchase(r.Context(), walletID, req.Cash, req.Blacklist)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewAssetPurchasePlan(plan))
}

// ApplyAssetPurchase plans and records a purchase for the wallet in the path
func (h *Handlers) ApplyAssetPurchase(w http.ResponseWriter, r *http.Request) {
	walletID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req api.ApplyAssetPurchaseRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	result, err := h.investingService.ApplyAssetPurchase(r.Context(), walletID, req.Cash, req.Blacklist, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewApplyAssetPurchaseResponse(result))
}

// PlanCashDistribution splits cash across wallets
func (h *Handlers) PlanCashDistribution(w http.ResponseWriter, r *http.Request) {
	var req api.PlanCashDistributionRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	plan, err := h.investingService.PlanCashDistribution(r.Context(), req.Cash, req.Blacklist)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewDistributionPlan(plan))
}

// GetPortfolioSummary returns the allocation state of the portfolio
func (h *Handlers) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.GetPortfolioSummary(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewPortfolioSummary(summary))
}

// AllocateDiscrete runs the discrete allocator over the request buckets
func (h *Handlers) AllocateDiscrete(w http.ResponseWriter, r *http.Request) {
	var req api.AllocateDiscreteRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	plan, err := api.AllocateDiscrete(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// AllocateProportional runs the proportional allocator over the request buckets
func (h *Handlers) AllocateProportional(w http.ResponseWriter, r *http.Request) {
	var req api.AllocateProportionalRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	plan, err := api.AllocateProportional(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id: " + err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err to an HTTP status the same way the gRPC transport maps it to a code
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch api.Classify(err) {
	case api.KindInvalid:
		status = http.StatusBadRequest
	case api.KindNotFound:
		status = http.StatusNotFound
	case api.KindConflict:
		status = http.StatusConflict
	default:
		h.log.Error().Err(err).Msg("Request failed")
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
