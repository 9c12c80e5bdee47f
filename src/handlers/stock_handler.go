package handlers

import (
	"net/http"

	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/utils"
)

type StockHandler struct {
	catalog *market.Catalog
}

func NewStockHandler(catalog *market.Catalog) *StockHandler {
	return &StockHandler{catalog: catalog}
}

// HandleListStocks returns the whole catalog in its fixed order.
func (h *StockHandler) HandleListStocks(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stocks": h.catalog.List(),
	})
}

// HandleGetStock returns one instrument; the symbol match is
// case-insensitive.
func (h *StockHandler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	inst, err := h.catalog.Lookup(symbol)
	if err != nil {
		utils.SendJSONError(w, "Stock not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, inst)
}
