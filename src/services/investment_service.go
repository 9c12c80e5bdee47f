package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/model"
	"github.com/username/sixex/backend/src/models"
	"github.com/username/sixex/backend/src/processors"
	"github.com/username/sixex/backend/src/utils"
)

// ErrStorage wraps repository failures so handlers can distinguish them
// from user-correctable errors.
var ErrStorage = errors.New("storage error")

type investmentServiceImpl struct {
	db        *sql.DB
	catalog   *market.Catalog
	processor *processors.InvestmentProcessor
	readCache *cache.Cache
}

func NewInvestmentService(db *sql.DB, catalog *market.Catalog, processor *processors.InvestmentProcessor, readCache *cache.Cache) InvestmentService {
	return &investmentServiceImpl{
		db:        db,
		catalog:   catalog,
		processor: processor,
		readCache: readCache,
	}
}

func investmentsCacheKey(userID int64) string { return fmt.Sprintf("investments_%d", userID) }
func summaryCacheKey(userID int64) string     { return fmt.Sprintf("summary_%d", userID) }

// Buy resolves the symbol, merges the purchase into the user's position
// and persists the result. The read-merge-write runs inside one
// transaction so concurrent buys of the same symbol cannot lose updates.
// Validation failures leave the ledger untouched.
func (s *investmentServiceImpl) Buy(userID int64, symbol string, amount float64) (*BuyResult, error) {
	inst, err := s.catalog.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	if err := s.processor.ValidateAmount(amount); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning buy transaction: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	existing, err := model.GetPosition(tx, userID, inst.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: reading position %d/%s: %v", ErrStorage, userID, inst.Symbol, err)
	}

	updated, err := s.processor.ApplyPurchase(existing, userID, inst.Symbol, amount, inst.Price, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	sharesPurchased := updated.Shares
	if existing != nil {
		sharesPurchased = updated.Shares - existing.Shares
	}

	if err := model.UpsertPosition(tx, &updated); err != nil {
		return nil, fmt.Errorf("%w: saving position %d/%s: %v", ErrStorage, userID, inst.Symbol, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing buy: %v", ErrStorage, err)
	}

	s.invalidateUserCaches(userID)

	portfolio, err := s.GetPortfolio(userID)
	if err != nil {
		return nil, err
	}

	logger.L.Info("Buy executed",
		"userID", userID,
		"symbol", inst.Symbol,
		"amount", amount,
		"shares", utils.RoundFloat(sharesPurchased, 6))

	return &BuyResult{
		Message:         fmt.Sprintf("Successfully invested $%.2f in %s", amount, inst.Symbol),
		SharesPurchased: sharesPurchased,
		Portfolio:       portfolio,
	}, nil
}

// GetPortfolio returns the user's raw holdings, oldest first.
func (s *investmentServiceImpl) GetPortfolio(userID int64) ([]models.PortfolioEntry, error) {
	positions, err := model.ListPositions(s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing positions for user %d: %v", ErrStorage, userID, err)
	}
	portfolio := make([]models.PortfolioEntry, 0, len(positions))
	for _, pos := range positions {
		portfolio = append(portfolio, models.PortfolioEntry{
			Symbol:         pos.Symbol,
			Shares:         pos.Shares,
			InvestedAmount: pos.InvestedAmount,
			InvestedAt:     pos.CreatedAt,
		})
	}
	return portfolio, nil
}

// GetInvestments reprices the user's positions against the catalog.
// Positions whose symbol is no longer listed are omitted.
func (s *investmentServiceImpl) GetInvestments(userID int64) ([]models.ValuedPosition, error) {
	if cached, found := s.readCache.Get(investmentsCacheKey(userID)); found {
		if investments, ok := cached.([]models.ValuedPosition); ok {
			return investments, nil
		}
	}

	positions, err := model.ListPositions(s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing positions for user %d: %v", ErrStorage, userID, err)
	}

	investments := make([]models.ValuedPosition, 0, len(positions))
	for _, pos := range positions {
		inst, err := s.catalog.Lookup(pos.Symbol)
		if err != nil {
			logger.L.Warn("Skipping position with unlisted symbol during valuation",
				"userID", userID, "symbol", pos.Symbol)
			continue
		}
		investments = append(investments, s.processor.ValuatePosition(pos, inst))
	}

	s.readCache.Set(investmentsCacheKey(userID), investments, cache.DefaultExpiration)
	return investments, nil
}

// GetSummary aggregates the user's portfolio at current prices.
func (s *investmentServiceImpl) GetSummary(userID int64) (models.PortfolioSummary, error) {
	if cached, found := s.readCache.Get(summaryCacheKey(userID)); found {
		if summary, ok := cached.(models.PortfolioSummary); ok {
			return summary, nil
		}
	}

	positions, err := model.ListPositions(s.db, userID)
	if err != nil {
		return models.PortfolioSummary{}, fmt.Errorf("%w: listing positions for user %d: %v", ErrStorage, userID, err)
	}

	summary := s.processor.ValuatePortfolio(positions, s.catalog, false)
	s.readCache.Set(summaryCacheKey(userID), summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *investmentServiceImpl) invalidateUserCaches(userID int64) {
	s.readCache.Delete(investmentsCacheKey(userID))
	s.readCache.Delete(summaryCacheKey(userID))
}
