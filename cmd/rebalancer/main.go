package main

import (
	"log"
	"os"
	"time"

	"crypto_rebalancer/internal/allocation"
	"crypto_rebalancer/internal/config"
	"crypto_rebalancer/internal/forecast"
	"crypto_rebalancer/internal/logger"
	"crypto_rebalancer/internal/market"
	"crypto_rebalancer/internal/market/alpaca"
	"crypto_rebalancer/internal/market/binance"
	"crypto_rebalancer/internal/rebalance"
	"crypto_rebalancer/internal/storage"
	"crypto_rebalancer/internal/telegram"
)

const LogFile = "rebalancer.log"
const VersionFile = "version.latest"

// main is the entry point of the application.
func main() {
	start := time.Now()

	// 1. Initialization
	// Load configuration first to get logger settings
	cfg := config.Load()
	cfg.Version = readVersion()

	logger.Setup(LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	log.Printf("Rebalancer %s starting (exchange=%s mode=%s)", cfg.Version, cfg.Exchange, cfg.Mode)

	// 2. Target allocation
	spec, err := loadAllocation(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Invalid allocation: %v", err)
	}

	// 3. Exchange provider
	var provider market.ExchangeProvider
	var history forecast.TradeHistory
	switch cfg.Exchange {
	case "binance":
		p := binance.NewProvider(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))
		provider, history = p, p
	case "alpaca":
		p := alpaca.NewProvider()
		provider, history = p, p
	default:
		// config.Load already rejects unknown exchanges; belt and braces.
		log.Fatalf("CRITICAL: Unknown exchange %q", cfg.Exchange)
	}

	// 4. Price source: the exchange's order book by default, or a
	// trade-curve projection when PRICE_SOURCE=forecast.
	var prices market.PriceSource = provider
	if cfg.PriceSource == "forecast" {
		log.Println("Using forecast price source (recent trade projection)")
		prices = forecast.New(history)
	}

	// 5. Run the rebalance
	r := rebalance.New(provider, prices, spec)
	report, err := r.Run(rebalance.RunParams{
		Mode:          cfg.Mode,
		RequestedCash: cfg.InvestmentAmount,
		CashReserve:   cfg.CashReserve,
	})
	if err != nil {
		log.Fatalf("CRITICAL: Rebalance aborted: %v", err)
	}

	// 6. Report, archive, notify
	text := rebalance.Render(report)
	log.Println(text)

	if _, err := storage.SaveReport(report); err != nil {
		log.Printf("ERROR: Failed to archive report: %v", err)
	}
	telegram.Notify(text)

	log.Printf("Run complete in %s", time.Since(start).Round(time.Millisecond))
}

func loadAllocation(cfg *config.Config) (*allocation.Spec, error) {
	if cfg.AllocationFile != "" {
		log.Printf("Loading allocation from %s", cfg.AllocationFile)
		return allocation.Load(cfg.AllocationFile)
	}
	return allocation.Default()
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return string(version)
}
