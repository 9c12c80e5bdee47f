package services

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/sixex/backend/src/database"
	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/model"
	"github.com/username/sixex/backend/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func setupTestService(t *testing.T) InvestmentService {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	db := database.DB
	t.Cleanup(func() { db.Close() })

	return NewInvestmentService(
		db,
		market.Default(),
		processors.NewInvestmentProcessor(1.0),
		cache.New(time.Minute, 5*time.Minute),
	)
}

func TestBuyCreatesPosition(t *testing.T) {
	svc := setupTestService(t)

	result, err := svc.Buy(1, "nflx", 10.0)
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if !approxEqual(result.SharesPurchased, 10.0/487.23, 1e-12) {
		t.Errorf("shares purchased = %v, want %v", result.SharesPurchased, 10.0/487.23)
	}
	if len(result.Portfolio) != 1 {
		t.Fatalf("portfolio has %d entries, want 1", len(result.Portfolio))
	}
	entry := result.Portfolio[0]
	if entry.Symbol != "NFLX" {
		t.Errorf("symbol stored as %s, want canonical NFLX", entry.Symbol)
	}
	if entry.InvestedAmount != 10.0 {
		t.Errorf("invested = %v, want 10.0", entry.InvestedAmount)
	}
}

func TestBuyMergesRepeatedPurchases(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Buy(1, "NFLX", 10.0); err != nil {
		t.Fatalf("first Buy() error = %v", err)
	}
	result, err := svc.Buy(1, "NFLX", 5.0)
	if err != nil {
		t.Fatalf("second Buy() error = %v", err)
	}

	if !approxEqual(result.SharesPurchased, 5.0/487.23, 1e-9) {
		t.Errorf("second purchase shares = %v, want %v", result.SharesPurchased, 5.0/487.23)
	}
	if len(result.Portfolio) != 1 {
		t.Fatalf("portfolio has %d entries after repeat buy, want 1 merged position", len(result.Portfolio))
	}
	entry := result.Portfolio[0]
	if entry.InvestedAmount != 15.0 {
		t.Errorf("merged invested = %v, want 15.0", entry.InvestedAmount)
	}
	if !approxEqual(entry.Shares, 10.0/487.23+5.0/487.23, 1e-9) {
		t.Errorf("merged shares = %v, want %v", entry.Shares, 15.0/487.23)
	}

	// The ledger must hold exactly one row for the pair.
	positions, err := model.ListPositions(database.DB, 1)
	if err != nil {
		t.Fatalf("ListPositions() error = %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("ledger has %d rows for (1, NFLX), want 1", len(positions))
	}
}

func TestBuyUnknownSymbol(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Buy(1, "ZZZZ", 10.0)
	if !errors.Is(err, market.ErrUnknownSymbol) {
		t.Fatalf("Buy(ZZZZ) error = %v, want ErrUnknownSymbol", err)
	}
	portfolio, err := svc.GetPortfolio(1)
	if err != nil {
		t.Fatalf("GetPortfolio() error = %v", err)
	}
	if len(portfolio) != 0 {
		t.Errorf("failed buy created %d positions, want 0", len(portfolio))
	}
}

func TestBuyBelowMinimum(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Buy(1, "NFLX", 0.50)
	if !errors.Is(err, processors.ErrInvalidAmount) {
		t.Fatalf("Buy(0.50) error = %v, want ErrInvalidAmount", err)
	}
	portfolio, err := svc.GetPortfolio(1)
	if err != nil {
		t.Fatalf("GetPortfolio() error = %v", err)
	}
	if len(portfolio) != 0 {
		t.Errorf("failed buy created %d positions, want 0", len(portfolio))
	}
}

func TestGetInvestmentsValuation(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Buy(1, "TSLA", 100.0); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	investments, err := svc.GetInvestments(1)
	if err != nil {
		t.Fatalf("GetInvestments() error = %v", err)
	}
	if len(investments) != 1 {
		t.Fatalf("got %d investments, want 1", len(investments))
	}
	inv := investments[0]
	if inv.StockName != "Tesla Inc." || inv.CurrentPrice != 248.95 {
		t.Errorf("instrument attributes = (%s, %v)", inv.StockName, inv.CurrentPrice)
	}
	// Static prices: current value equals invested, gain/loss zero.
	if !approxEqual(inv.CurrentValue, 100.0, 1e-9) {
		t.Errorf("current value = %v, want 100", inv.CurrentValue)
	}
	if !approxEqual(inv.GainLoss, 0, 1e-9) || !approxEqual(inv.GainLossPercent, 0, 1e-9) {
		t.Errorf("gain/loss = (%v, %v%%), want zero", inv.GainLoss, inv.GainLossPercent)
	}
}

func TestGetSummaryEmptyPortfolio(t *testing.T) {
	svc := setupTestService(t)

	summary, err := svc.GetSummary(1)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.TotalInvested != 0 || summary.TotalCurrentValue != 0 ||
		summary.TotalGainLoss != 0 || summary.TotalGainLossPercent != 0 ||
		summary.HoldingsCount != 0 {
		t.Errorf("empty summary not all-zero: %+v", summary)
	}
}

func TestSummaryCacheInvalidatedOnBuy(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Buy(1, "NFLX", 10.0); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	first, err := svc.GetSummary(1)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if !approxEqual(first.TotalInvested, 10.0, 1e-9) {
		t.Errorf("total invested = %v, want 10", first.TotalInvested)
	}

	if _, err := svc.Buy(1, "GOOGL", 20.0); err != nil {
		t.Fatalf("second Buy() error = %v", err)
	}
	second, err := svc.GetSummary(1)
	if err != nil {
		t.Fatalf("GetSummary() after second buy error = %v", err)
	}
	if !approxEqual(second.TotalInvested, 30.0, 1e-9) {
		t.Errorf("total invested after second buy = %v, want 30 (stale cache?)", second.TotalInvested)
	}
	if second.HoldingsCount != 2 {
		t.Errorf("holdings count = %d, want 2", second.HoldingsCount)
	}
}

func TestSummariesAreIsolatedPerUser(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Buy(1, "NFLX", 10.0); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if _, err := svc.Buy(2, "TSLA", 50.0); err != nil {
		t.Fatalf("Buy() for second user error = %v", err)
	}

	one, err := svc.GetSummary(1)
	if err != nil {
		t.Fatalf("GetSummary(1) error = %v", err)
	}
	two, err := svc.GetSummary(2)
	if err != nil {
		t.Fatalf("GetSummary(2) error = %v", err)
	}
	if !approxEqual(one.TotalInvested, 10.0, 1e-9) || one.HoldingsCount != 1 {
		t.Errorf("user 1 summary = %+v", one)
	}
	if !approxEqual(two.TotalInvested, 50.0, 1e-9) || two.HoldingsCount != 1 {
		t.Errorf("user 2 summary = %+v", two)
	}
}
