package config

import (
	"log"
	"os"

	"crypto_rebalancer/internal/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds everything read from the environment at startup. It is
// fixed before any concurrent work starts and never mutated afterwards.
type Config struct {
	// Exchange selects the provider: "binance" or "alpaca".
	Exchange string

	// Mode is the submission mode for the whole batch. Defaults to
	// test; live orders require an explicit REBALANCE_MODE=live.
	Mode models.SubmitMode

	// InvestmentAmount is the most cash (USD) to deploy per run.
	InvestmentAmount decimal.Decimal

	// CashReserve is never spent, so small fees and dust can clear.
	CashReserve decimal.Decimal

	// PriceSource selects pricing: "book" (order-book average) or
	// "forecast" (trade-curve projection).
	PriceSource string

	// AllocationFile optionally overrides the built-in allocation.
	AllocationFile string

	MaxLogSizeMB  int64
	MaxLogBackups int

	Version string
}

// requiredVars lists the credentials each exchange needs. All of them
// are confidential and echoed masked.
var requiredVars = map[string][]string{
	"binance": {"BINANCE_API_KEY", "BINANCE_API_SECRET"},
	"alpaca":  {"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "APCA_API_BASE_URL"},
}

// Load initializes the configuration. It reads a .env file if present,
// validates the selected exchange's credentials, and applies defaults
// for everything optional. Missing credentials are fatal: better to
// stop here than halfway through a fetch phase.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := &Config{
		Exchange:         getEnv("EXCHANGE", "binance"),
		Mode:             models.ModeTest,
		InvestmentAmount: getEnvAsDecimal("INVESTMENT_AMOUNT", decimal.NewFromInt(200)),
		CashReserve:      getEnvAsDecimal("CASH_RESERVE", decimal.NewFromInt(10)),
		PriceSource:      getEnv("PRICE_SOURCE", "book"),
		AllocationFile:   getEnv("ALLOCATION_FILE", ""),
		MaxLogSizeMB:     int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups:    getEnvAsInt("MAX_LOG_BACKUPS", 3),
	}

	// Only the exact string "live" arms real orders.
	if getEnv("REBALANCE_MODE", "test") == string(models.ModeLive) {
		cfg.Mode = models.ModeLive
	}

	required, ok := requiredVars[cfg.Exchange]
	if !ok {
		log.Fatalf("CRITICAL: Unknown EXCHANGE %q (want binance or alpaca)", cfg.Exchange)
	}

	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("CRITICAL: Missing required environment variables: %v", missing)
	}

	echoEnvFile(required)
	return cfg
}

// echoEnvFile prints the .env contents at startup so a misconfigured
// run is diagnosable from the log, masking secret values down to their
// last 4 characters.
func echoEnvFile(secretKeys []string) {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}

	secret := make(map[string]bool, len(secretKeys))
	for _, k := range secretKeys {
		secret[k] = true
	}

	log.Println("--- .env File Variables ---")
	for key, val := range envMap {
		if secret[key] {
			masked := "***"
			if len(val) > 4 {
				masked = "***" + val[len(val)-4:]
			}
			log.Printf("%s=%s", key, masked)
		} else {
			log.Printf("%s=%s", key, val)
		}
	}
	log.Println("---------------------------")
}
