package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/models"
	"github.com/username/sixex/backend/src/processors"
	"github.com/username/sixex/backend/src/services"
	"github.com/username/sixex/backend/src/utils"
)

type InvestmentHandler struct {
	investmentService services.InvestmentService
}

func NewInvestmentHandler(investmentService services.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

type buyRequest struct {
	StockSymbol string  `json:"stock_symbol"`
	Amount      float64 `json:"amount"`
}

// HandleBuy converts a buy order into a merged position. Validation
// failures map to client errors and leave the ledger untouched.
func (h *InvestmentHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.investmentService.Buy(userID, req.StockSymbol, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, market.ErrUnknownSymbol):
			utils.SendJSONError(w, "Invalid stock symbol", http.StatusBadRequest)
		case errors.Is(err, processors.ErrInvalidAmount):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Buy failed", "userID", userID, "symbol", req.StockSymbol, "error", err)
			utils.SendJSONError(w, "Failed to process investment", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

// HandleGetInvestments returns the caller's valued positions.
func (h *InvestmentHandler) HandleGetInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	investments, err := h.investmentService.GetInvestments(userID)
	if err != nil {
		logger.L.Error("Failed to load investments", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to load investments", http.StatusInternalServerError)
		return
	}
	if investments == nil {
		investments = []models.ValuedPosition{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"investments": investments,
	})
}

// HandleGetSummary returns the caller's aggregate portfolio summary.
func (h *InvestmentHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	summary, err := h.investmentService.GetSummary(userID)
	if err != nil {
		logger.L.Error("Failed to compute portfolio summary", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to load portfolio summary", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}
