package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig configures one token-bucket policy.
type RateLimitConfig struct {
	Scope          string
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// Per-scope defaults.  Booking creation and code verification are the
// abuse-prone endpoints: a 4-digit PIN space is small enough to walk.
var rateLimitDefaults = map[string]RateLimitConfig{
	"BOOKING": {Capacity: 10, RefillTokens: 1, RefillInterval: 30 * time.Second},
	"VERIFY":  {Capacity: 20, RefillTokens: 1, RefillInterval: 10 * time.Second},
	"LOGIN":   {Capacity: 5, RefillTokens: 1, RefillInterval: time.Minute},
}

// LoadRateLimitConfig builds the policy for scope.  RATE_LIMIT_<SCOPE>_*
// overrides RATE_LIMIT_*, which overrides the built-in scope default.
func LoadRateLimitConfig(scope string) RateLimitConfig {
	base, ok := rateLimitDefaults[scope]
	if !ok {
		base = RateLimitConfig{Capacity: 60, RefillTokens: 1, RefillInterval: time.Second}
	}
	def := RateLimitConfig{
		Scope:          scope,
		Enabled:        scopedBool(scope, "ENABLED", true),
		Capacity:       scopedInt(scope, "CAPACITY", base.Capacity),
		RefillTokens:   scopedInt(scope, "REFILL_TOKENS", base.RefillTokens),
		RefillInterval: scopedDur(scope, "REFILL_INTERVAL", base.RefillInterval),
		TTL:            scopedDur(scope, "TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rms:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

func scopedKey(scope, name string) string { return "RATE_LIMIT_" + scope + "_" + name }

func scopedBool(scope, name string, d bool) bool {
	return envBool(scopedKey(scope, name), envBool("RATE_LIMIT_"+name, d))
}

func scopedInt(scope, name string, d int) int {
	return envInt(scopedKey(scope, name), envInt("RATE_LIMIT_"+name, d))
}

func scopedDur(scope, name string, d time.Duration) time.Duration {
	return envDur(scopedKey(scope, name), envDur("RATE_LIMIT_"+name, d))
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
