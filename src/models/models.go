package models

import "time"

// Instrument is one entry in the static price catalog. The set of
// instruments is fixed at process start; prices are mock values and are
// never updated while the server runs.
type Instrument struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Position is a user's cumulative holding in one instrument. Repeated
// purchases of the same symbol merge into this single record; there is
// exactly one Position per (user, symbol).
type Position struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	Symbol         string    `json:"stock_symbol"`
	Shares         float64   `json:"shares"`
	InvestedAmount float64   `json:"invested_amount"`
	CreatedAt      time.Time `json:"invested_at"`
	UpdatedAt      time.Time `json:"-"`
}

// ValuedPosition is a Position repriced against the current catalog.
type ValuedPosition struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"stock_symbol"`
	StockName       string    `json:"stock_name"`
	Shares          float64   `json:"shares"`
	InvestedAmount  float64   `json:"invested_amount"`
	CurrentPrice    float64   `json:"current_price"`
	CurrentValue    float64   `json:"current_value"`
	GainLoss        float64   `json:"gain_loss"`
	GainLossPercent float64   `json:"gain_loss_percent"`
	InvestedAt      time.Time `json:"invested_at"`
}

// PortfolioSummary aggregates a user's positions at current prices.
type PortfolioSummary struct {
	TotalInvested        float64 `json:"total_invested"`
	TotalCurrentValue    float64 `json:"total_current_value"`
	TotalGainLoss        float64 `json:"total_gain_loss"`
	TotalGainLossPercent float64 `json:"total_gain_loss_percent"`
	HoldingsCount        int     `json:"holdings_count"`
}

// PortfolioEntry is the raw holding shape embedded in the profile, login
// and buy responses (no pricing applied).
type PortfolioEntry struct {
	Symbol         string    `json:"stock_symbol"`
	Shares         float64   `json:"shares"`
	InvestedAmount float64   `json:"invested_amount"`
	InvestedAt     time.Time `json:"invested_at"`
}
