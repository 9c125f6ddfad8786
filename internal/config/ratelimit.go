package config

import "time"

// Rate limit key strategies.  The bucket is shared by every request that
// maps to the same key.
const (
    RateKeyStation      = "station"
    RateKeyStationRoute = "station_route"
    RateKeyOperator     = "operator"
    RateKeyIP           = "ip"
)

// RateLimitConfig configures the Redis token bucket in front of the station
// routes.  Scans are debounced in memory first, so the budget only has to
// absorb genuinely distinct reads from one station.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables.  The bucket key
// expires after TTL of inactivity, never sooner than five refill intervals.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 5),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", RateKeyStationRoute),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "checkin:rl"),
    }
    switch cfg.KeyStrategy {
    case RateKeyStation, RateKeyStationRoute, RateKeyOperator, RateKeyIP:
    default:
        cfg.KeyStrategy = RateKeyStationRoute
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    if floor := 5 * cfg.RefillInterval; cfg.TTL < floor {
        cfg.TTL = floor
    }
    return cfg
}
