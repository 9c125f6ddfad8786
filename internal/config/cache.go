package config

import "time"

// CacheConfig configures the Redis response cache in front of the stats
// endpoint.  Dashboards poll stats while the doors are open; a short TTL
// keeps them from re-aggregating the roster on every refresh while staying
// close to live.  Responses larger than MaxBodyBytes are not cached.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 5*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "checkin:stats"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 5 * time.Second
    }
    return cfg
}
