package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/sixex/backend/src/database"
	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/models"
	"github.com/username/sixex/backend/src/processors"
	"github.com/username/sixex/backend/src/services"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func setupInvestmentHandler(t *testing.T) *InvestmentHandler {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	db := database.DB
	t.Cleanup(func() { db.Close() })

	svc := services.NewInvestmentService(
		db,
		market.Default(),
		processors.NewInvestmentProcessor(1.0),
		cache.New(time.Minute, 5*time.Minute),
	)
	return NewInvestmentHandler(svc)
}

func authedRequest(method, target, body string, userID int64) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), userIDContextKey, userID))
}

func TestHandleBuy(t *testing.T) {
	h := setupInvestmentHandler(t)

	rr := httptest.NewRecorder()
	h.HandleBuy(rr, authedRequest(http.MethodPost, "/api/investments/buy",
		`{"stock_symbol": "NFLX", "amount": 10}`, 1))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	var result services.BuyResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if math.Abs(result.SharesPurchased-10.0/487.23) > 1e-9 {
		t.Errorf("shares purchased = %v, want %v", result.SharesPurchased, 10.0/487.23)
	}
	if len(result.Portfolio) != 1 {
		t.Errorf("portfolio has %d entries, want 1", len(result.Portfolio))
	}
}

func TestHandleBuy_UnknownSymbol(t *testing.T) {
	h := setupInvestmentHandler(t)

	rr := httptest.NewRecorder()
	h.HandleBuy(rr, authedRequest(http.MethodPost, "/api/investments/buy",
		`{"stock_symbol": "ZZZZ", "amount": 10}`, 1))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["error"] != "Invalid stock symbol" {
		t.Errorf("error message = %q", body["error"])
	}
}

func TestHandleBuy_AmountBelowMinimum(t *testing.T) {
	h := setupInvestmentHandler(t)

	rr := httptest.NewRecorder()
	h.HandleBuy(rr, authedRequest(http.MethodPost, "/api/investments/buy",
		`{"stock_symbol": "NFLX", "amount": 0.5}`, 1))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleBuy_Unauthenticated(t *testing.T) {
	h := setupInvestmentHandler(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/investments/buy",
		strings.NewReader(`{"stock_symbol": "NFLX", "amount": 10}`))
	h.HandleBuy(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestHandleGetInvestments_EmptyIsArray(t *testing.T) {
	h := setupInvestmentHandler(t)

	rr := httptest.NewRecorder()
	h.HandleGetInvestments(rr, authedRequest(http.MethodGet, "/api/investments", "", 1))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Investments []models.ValuedPosition `json:"investments"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Investments == nil || len(body.Investments) != 0 {
		t.Errorf("investments = %v, want empty array", body.Investments)
	}
}

func TestHandleGetSummary(t *testing.T) {
	h := setupInvestmentHandler(t)

	buy := httptest.NewRecorder()
	h.HandleBuy(buy, authedRequest(http.MethodPost, "/api/investments/buy",
		`{"stock_symbol": "TSLA", "amount": 50}`, 7))
	if buy.Code != http.StatusOK {
		t.Fatalf("buy status = %d, want 200", buy.Code)
	}

	rr := httptest.NewRecorder()
	h.HandleGetSummary(rr, authedRequest(http.MethodGet, "/api/portfolio/summary", "", 7))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var summary models.PortfolioSummary
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if summary.HoldingsCount != 1 {
		t.Errorf("holdings count = %d, want 1", summary.HoldingsCount)
	}
	if math.Abs(summary.TotalInvested-50) > 1e-9 {
		t.Errorf("total invested = %v, want 50", summary.TotalInvested)
	}
}
