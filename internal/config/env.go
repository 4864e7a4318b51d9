// FILE: env.go
// Package config – environment helpers and a dependency-free .env loader.
// Only the whitelisted keys below are ever injected into the process
// environment.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// needed is the whitelist of keys LoadDotEnv will inject into the process
// environment. Anything else in the .env file (sidecar secrets, PEMs) is
// left alone: the Go process only reads what it uses.
var needed = map[string]struct{}{
	"SYMBOL": {}, "TICKER_ALIAS": {}, "CURRENCY": {}, "EXCHANGE": {},
	"INTERVAL_OPTION": {}, "CANDLE_COUNT": {}, "DURATION_TYPE": {}, "REPS_LIMIT": {},
	"IS_LIVE": {}, "DRY_RUN": {},
	"SIZER_MODE": {}, "SIZER_FIXED_SIZE": {}, "SIZER_AMOUNT": {}, "SIZER_BUY_POWER_RATIO": {},
	"STOP_TRAIL_PERCENT": {}, "STOP_TRAIL_AMOUNT": {},
	"STOP_ANCHOR_INCREASE_PERCENT": {}, "STOP_ANCHOR_INCREASE_AMOUNT": {},
	"STOP_GAP_PERCENT": {}, "STOP_GAP_AMOUNT": {},
	"COMMISSION_FIXED": {}, "COMMISSION_AMOUNT": {}, "COMMISSION_PERCENT": {},
	"COMMISSION_FLOOR": {}, "COMMISSION_CEILING": {},
	"PORT": {}, "BRIDGE_URL": {}, "SLACK_WEBHOOK": {}, "STATE_DIR": {},
	"BACKTEST_CSV": {}, "DATA_DELAY_SECONDS": {},
}

// LoadDotEnv reads .env from "." and ".." and sets only whitelisted keys.
// It never overrides a variable already present in the environment, and
// silently skips unrecognized/secret keys.
func LoadDotEnv() {
	try := func(path string) {
		f, err := os.Open(path)
		if err != nil {
			return
		}
		defer f.Close()
		s := bufio.NewScanner(f)
		for s.Scan() {
			line := strings.TrimSpace(s.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if strings.HasPrefix(line, "export ") {
				line = strings.TrimSpace(line[len("export "):])
			}
			eq := strings.Index(line, "=")
			if eq <= 0 {
				continue
			}
			key := strings.TrimSpace(line[:eq])
			if _, ok := needed[key]; !ok {
				continue
			}
			val := strings.TrimSpace(line[eq+1:])
			if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
				val = val[1 : len(val)-1]
			}
			if idx := strings.IndexAny(val, "#"); idx >= 0 {
				val = strings.TrimSpace(val[:idx])
			}
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, val)
			}
		}
	}
	for _, base := range []string{".", ".."} {
		try(filepath.Join(base, ".env"))
	}
}
