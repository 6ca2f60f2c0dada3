package config

import (
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid int %q for config %s, using default %d", valueStr, key, fallback)
		return fallback
	}
	return val
}

func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid amount %q for config %s, using default %s", valueStr, key, fallback)
		return fallback
	}
	return val
}
