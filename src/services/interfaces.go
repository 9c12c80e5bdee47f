package services

import "github.com/username/sixex/backend/src/models"

// BuyResult holds everything a successful buy returns to the client: the
// fractional shares just purchased and the user's full updated portfolio.
type BuyResult struct {
	Message         string                  `json:"message"`
	SharesPurchased float64                 `json:"shares_purchased"`
	Portfolio       []models.PortfolioEntry `json:"portfolio"`
}

// InvestmentService defines the core investment operations: converting buy
// orders into merged positions and repricing holdings against the catalog.
type InvestmentService interface {
	Buy(userID int64, symbol string, amount float64) (*BuyResult, error)
	GetPortfolio(userID int64) ([]models.PortfolioEntry, error)
	GetInvestments(userID int64) ([]models.ValuedPosition, error)
	GetSummary(userID int64) (models.PortfolioSummary, error)
}
