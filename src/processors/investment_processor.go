package processors

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/models"
)

// ErrInvalidAmount is returned when a purchase amount is below the
// configured minimum investment.
var ErrInvalidAmount = errors.New("investment amount below minimum")

// InvestmentProcessor holds the pure buy and valuation arithmetic. Shares
// and invested amounts use plain float64 with no rounding; callers that
// need reproducible display values round at the edge.
type InvestmentProcessor struct {
	minInvestment float64
}

func NewInvestmentProcessor(minInvestment float64) *InvestmentProcessor {
	return &InvestmentProcessor{minInvestment: minInvestment}
}

// ValidateAmount rejects contributions below the configured floor.
func (p *InvestmentProcessor) ValidateAmount(amount float64) error {
	if amount < p.minInvestment {
		return fmt.Errorf("%w: minimum investment amount is $%.2f", ErrInvalidAmount, p.minInvestment)
	}
	return nil
}

// ApplyPurchase merges a purchase of amount dollars at unitPrice into the
// existing position, or creates a new one when existing is nil. The unit
// price must already have been resolved from the catalog, so it is always
// positive. The function has no side effects; persisting the returned
// position is the caller's job.
func (p *InvestmentProcessor) ApplyPurchase(existing *models.Position, userID int64, symbol string, amount, unitPrice float64, now time.Time) (models.Position, error) {
	if err := p.ValidateAmount(amount); err != nil {
		return models.Position{}, err
	}
	if unitPrice <= 0 {
		return models.Position{}, fmt.Errorf("unit price for %s must be positive, got %v", symbol, unitPrice)
	}

	deltaShares := amount / unitPrice

	if existing == nil {
		return models.Position{
			ID:             uuid.New().String(),
			UserID:         userID,
			Symbol:         symbol,
			Shares:         deltaShares,
			InvestedAmount: amount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}, nil
	}

	updated := *existing
	updated.Shares += deltaShares
	updated.InvestedAmount += amount
	updated.UpdatedAt = now
	return updated, nil
}

// ValuatePosition reprices a position against the given instrument. A
// position with nothing invested reports a gain/loss percent of zero
// rather than dividing by zero.
func (p *InvestmentProcessor) ValuatePosition(pos models.Position, inst models.Instrument) models.ValuedPosition {
	currentValue := pos.Shares * inst.Price
	gainLoss := currentValue - pos.InvestedAmount
	gainLossPercent := 0.0
	if pos.InvestedAmount != 0 {
		gainLossPercent = (gainLoss / pos.InvestedAmount) * 100
	}
	return models.ValuedPosition{
		ID:              pos.ID,
		Symbol:          pos.Symbol,
		StockName:       inst.Name,
		Shares:          pos.Shares,
		InvestedAmount:  pos.InvestedAmount,
		CurrentPrice:    inst.Price,
		CurrentValue:    currentValue,
		GainLoss:        gainLoss,
		GainLossPercent: gainLossPercent,
		InvestedAt:      pos.CreatedAt,
	}
}

// ValuatePortfolio aggregates positions at current catalog prices.
// Positions whose symbol the catalog no longer knows are excluded unless
// includeUnpriced is set, in which case they contribute their invested
// amount at zero current value and count toward HoldingsCount.
func (p *InvestmentProcessor) ValuatePortfolio(positions []models.Position, catalog *market.Catalog, includeUnpriced bool) models.PortfolioSummary {
	var summary models.PortfolioSummary
	for _, pos := range positions {
		inst, err := catalog.Lookup(pos.Symbol)
		if err != nil {
			if includeUnpriced {
				summary.TotalInvested += pos.InvestedAmount
				summary.HoldingsCount++
			}
			continue
		}
		summary.TotalInvested += pos.InvestedAmount
		summary.TotalCurrentValue += pos.Shares * inst.Price
		summary.HoldingsCount++
	}
	summary.TotalGainLoss = summary.TotalCurrentValue - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.TotalGainLossPercent = (summary.TotalGainLoss / summary.TotalInvested) * 100
	}
	return summary
}
