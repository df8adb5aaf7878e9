package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config carries the engine knobs. Amounts are integer cents; the commission
// rate is a decimal fraction of the gross prize.
type Config struct {
	Port           string
	DatabaseURL    string
	CommissionRate decimal.Decimal
	CountdownSec   int
	MinPlayers     int
	FillTarget     int
	StaleAfter     time.Duration // reap threshold for inactive waiting/countdown rounds
	TakeoverAfter  time.Duration // ticker-election fallback takeover threshold
	Stakes         []int64       // supported stake levels in cents
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func getenvDecimal(key, def string) decimal.Decimal {
	v := getenv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %s", key, v, def)
		d, _ = decimal.NewFromString(def)
	}
	return d
}

func parseStakes(raw string) []int64 {
	var stakes []int64
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		stakes = append(stakes, n)
	}
	return stakes
}

// Load reads .env (if present) and builds the runtime configuration.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	return Config{
		Port:           getenv("PORT", "4000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		CommissionRate: getenvDecimal("COMMISSION_RATE", "0.10"),
		CountdownSec:   getenvInt("COUNTDOWN_SECONDS", 30),
		MinPlayers:     getenvInt("MIN_PLAYERS", 2),
		FillTarget:     getenvInt("FILL_TARGET", 4),
		StaleAfter:     getenvDuration("ROUND_STALE_AFTER", 2*time.Minute),
		TakeoverAfter:  getenvDuration("TICKER_TAKEOVER_AFTER", 5*time.Second),
		Stakes:         parseStakes(getenv("STAKES", "1000,2000,5000,10000")),
	}
}
