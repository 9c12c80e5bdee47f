package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/models"
)

func newStockMux() *http.ServeMux {
	h := NewStockHandler(market.Default())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stocks", h.HandleListStocks)
	mux.HandleFunc("GET /api/stocks/{symbol}", h.HandleGetStock)
	return mux
}

func TestHandleListStocks(t *testing.T) {
	rr := httptest.NewRecorder()
	newStockMux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stocks", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Stocks []models.Instrument `json:"stocks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Stocks) != 10 {
		t.Fatalf("got %d stocks, want 10", len(body.Stocks))
	}
	if body.Stocks[0].Symbol != "NFLX" {
		t.Errorf("first stock = %s, want NFLX (catalog order)", body.Stocks[0].Symbol)
	}
}

func TestHandleGetStock(t *testing.T) {
	rr := httptest.NewRecorder()
	newStockMux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stocks/nflx", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var inst models.Instrument
	if err := json.NewDecoder(rr.Body).Decode(&inst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if inst.Symbol != "NFLX" || inst.Price != 487.23 {
		t.Errorf("instrument = %+v", inst)
	}
}

func TestHandleGetStock_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newStockMux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stocks/ZZZZ", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["error"] != "Stock not found" {
		t.Errorf("error message = %q", body["error"])
	}
}
