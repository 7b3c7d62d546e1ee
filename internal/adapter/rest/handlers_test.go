package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthflow-rebalancer/internal/adapter/api"
	"github.com/simaogato/wealthflow-rebalancer/internal/adapter/repository/sqldb"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/dashboard"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/wallet"
)

const testToken = "test-token"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := sqldb.NewDB(sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	log := zerolog.Nop()
	walletRepo := sqldb.NewWalletRepository(db)
	assetRepo := sqldb.NewAssetRepository(db)
	priceRepo := sqldb.NewPriceRepository(db)
	purchaseRepo := sqldb.NewPurchaseRepository(db)

	walletService := wallet.NewWalletService(walletRepo, assetRepo, log)
	pricingService := pricing.NewPricingService(assetRepo, priceRepo, log)
	investingService := investing.NewInvestingService(walletRepo, assetRepo, purchaseRepo, pricingService, log)
	dashboardService := dashboard.NewDashboardService(investingService, log)

	h := NewHandlers(walletService, pricingService, investingService, dashboardService, log)
	return NewRouter(h, RouterConfig{APIToken: testToken, CORSOrigins: []string{"*"}, Log: log})
}

// do sends body as JSON with the test token and decodes the response into out
func do(t *testing.T, router http.Handler, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestRegisterRoutes(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, zerolog.Nop())
	router := chi.NewRouter()

	require.NotPanics(t, func() {
		h.RegisterRoutes(router)
	})

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/wallets/"},
		{"POST", "/wallets/"},
		{"PUT", "/wallets/{id}"},
		{"GET", "/wallets/{id}/assets"},
		{"POST", "/wallets/{id}/assets"},
		{"POST", "/wallets/{id}/plan"},
		{"POST", "/wallets/{id}/apply"},
		{"POST", "/assets/{id}/prices"},
		{"POST", "/distribution/plan"},
		{"GET", "/portfolio/summary"},
		{"POST", "/allocate/discrete"},
		{"POST", "/allocate/proportional"},
	}

	registered := make(map[string]bool)
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	for _, rt := range routes {
		assert.True(t, registered[rt.method+" "+rt.path], "route %s %s should be registered", rt.method, rt.path)
	}
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_RequiresToken(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "No header", header: "", want: http.StatusUnauthorized},
		{name: "Wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "Bearer token", header: "Bearer " + testToken, want: http.StatusOK},
		{name: "Raw token", header: testToken, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/wallets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHandlers_InvestFlow(t *testing.T) {
	router := newTestRouter(t)

	var stocks, bonds api.Wallet
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/wallets",
		map[string]string{"name": "Stocks", "ideal_percentage": "0.6"}, &stocks))
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/wallets",
		map[string]string{"name": "Bonds", "ideal_percentage": "0.4"}, &bonds))

	base := "/api/wallets/" + stocks.ID.String()

	var x, y api.Asset
	require.Equal(t, http.StatusCreated, do(t, router, "POST", base+"/assets",
		map[string]interface{}{"name": "X", "kind": "STOCK"}, &x))
	require.Equal(t, http.StatusCreated, do(t, router, "POST", base+"/assets",
		map[string]interface{}{"name": "Y", "kind": "ETF"}, &y))
	assert.Equal(t, stocks.ID, y.WalletID)

	for id, price := range map[uuid.UUID]string{x.ID: "10", y.ID: "25"} {
		var quote api.PriceQuote
		require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/assets/"+id.String()+"/prices",
			map[string]string{"price": price}, &quote))
		assert.True(t, quote.Price.Equal(decimal.RequireFromString(price)))
	}

	var plan api.AssetPurchasePlan
	require.Equal(t, http.StatusOK, do(t, router, "POST", base+"/plan", map[string]string{"cash": "45"}, &plan))
	require.Len(t, plan.Purchases, 2)
	assert.Equal(t, int64(2), plan.Purchases[0].Units)
	assert.Equal(t, int64(1), plan.Purchases[1].Units)
	assert.True(t, plan.Remaining.IsZero())

	var applied api.ApplyAssetPurchaseResponse
	require.Equal(t, http.StatusOK, do(t, router, "POST", base+"/apply",
		map[string]string{"cash": "45", "description": "monthly"}, &applied))
	require.NotNil(t, applied.PurchaseID)

	var assets []api.Asset
	require.Equal(t, http.StatusOK, do(t, router, "GET", base+"/assets", nil, &assets))
	require.Len(t, assets, 2)
	assert.Equal(t, int64(2), assets[0].Amount)
	assert.Equal(t, int64(1), assets[1].Amount)

	var summary api.PortfolioSummary
	require.Equal(t, http.StatusOK, do(t, router, "GET", "/api/portfolio/summary", nil, &summary))
	assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(45)))

	var updated api.Wallet
	require.Equal(t, http.StatusOK, do(t, router, "PUT", "/api/wallets/"+bonds.ID.String(),
		map[string]string{"ideal_percentage": "0.5"}, &updated))
	assert.True(t, updated.IdealPercentage.Equal(decimal.RequireFromString("0.5")))

	var distribution api.DistributionPlan
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/distribution/plan",
		map[string]interface{}{"cash": "100", "blacklist": []string{stocks.ID.String()}}, &distribution))
	require.Len(t, distribution.Purchases, 1)
	assert.Equal(t, bonds.ID, distribution.Purchases[0].WalletID)
	assert.True(t, distribution.Purchases[0].Amount.Equal(decimal.NewFromInt(100)))
}

func TestHandlers_Allocate(t *testing.T) {
	router := newTestRouter(t)
	a, b := uuid.New(), uuid.New()

	var discrete api.DiscretePlan
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/allocate/discrete", map[string]interface{}{
		"cash": "45",
		"buckets": []map[string]string{
			{"id": a.String(), "name": "X", "unit_price": "10"},
			{"id": b.String(), "name": "Y", "unit_price": "25"},
		},
	}, &discrete))
	assert.Equal(t, []api.UnitPurchase{{ID: a, Units: 2}, {ID: b, Units: 1}}, discrete.Purchases)
	assert.True(t, discrete.Remaining.IsZero())

	var proportional api.ProportionalPlan
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/allocate/proportional", map[string]interface{}{
		"cash": "100",
		"buckets": []map[string]string{
			{"id": a.String(), "current_value": "0", "ideal_percentage": "0.25"},
			{"id": b.String(), "current_value": "0", "ideal_percentage": "0.75"},
		},
	}, &proportional))
	require.Len(t, proportional.Purchases, 2)
	assert.True(t, proportional.Purchases[0].Amount.Equal(decimal.NewFromInt(25)))
	assert.True(t, proportional.Purchases[1].Amount.Equal(decimal.NewFromInt(75)))
}

func TestHandlers_ErrorStatus(t *testing.T) {
	router := newTestRouter(t)

	var stocks api.Wallet
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/wallets",
		map[string]string{"name": "Stocks", "ideal_percentage": "1"}, &stocks))
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/wallets/"+stocks.ID.String()+"/assets",
		map[string]string{"name": "X", "kind": "STOCK"}, nil))

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{
			name:   "Malformed path ID",
			method: "POST",
			path:   "/api/wallets/not-a-uuid/plan",
			body:   map[string]string{"cash": "10"},
			want:   http.StatusBadRequest,
		},
		{
			name:   "Unknown wallet",
			method: "POST",
			path:   "/api/wallets/" + uuid.NewString() + "/plan",
			body:   map[string]string{"cash": "10"},
			want:   http.StatusNotFound,
		},
		{
			name:   "Malformed decimal",
			method: "POST",
			path:   "/api/allocate/discrete",
			body:   map[string]string{"cash": "ten"},
			want:   http.StatusBadRequest,
		},
		{
			name:   "Empty bucket set",
			method: "POST",
			path:   "/api/allocate/discrete",
			body:   map[string]string{"cash": "10"},
			want:   http.StatusBadRequest,
		},
		{
			name:   "Cash buys too many units",
			method: "POST",
			path:   "/api/allocate/discrete",
			body: map[string]interface{}{
				"cash":    "1000000000",
				"buckets": []map[string]string{{"id": uuid.NewString(), "name": "Penny", "unit_price": "0.01"}},
			},
			want: http.StatusBadRequest,
		},
		{
			name:   "Duplicate asset",
			method: "POST",
			path:   "/api/wallets/" + stocks.ID.String() + "/assets",
			body:   map[string]string{"name": "X", "kind": "STOCK"},
			want:   http.StatusConflict,
		},
		{
			name:   "Percentage above one",
			method: "PUT",
			path:   "/api/wallets/" + stocks.ID.String(),
			body:   map[string]string{"ideal_percentage": "1.5"},
			want:   http.StatusBadRequest,
		},
		{
			name:   "Duplicate wallet name",
			method: "POST",
			path:   "/api/wallets",
			body:   map[string]string{"name": "Stocks", "ideal_percentage": "0.5"},
			want:   http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, router, tt.method, tt.path, tt.body, nil))
		})
	}
}
