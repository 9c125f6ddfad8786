package config

// This file defines the Redis client used by the station routes: the token
// bucket rate limiter and the stats response cache.  When Redis cannot be
// reached at startup the constructor returns nil and both features degrade
// to pass-through; check-in itself never depends on Redis.

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig is the connection part of the Redis settings.
type RedisConfig struct {
    Enabled     bool
    Addr        string
    Password    string
    DB          int
    TLS         bool
    TLSInsecure bool
}

// LoadRedisConfig reads the Redis variables:
//   REDIS_ENABLED – "false" disables Redis entirely (default true)
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_TLS_INSECURE – skip certificate verification (managed test instances)
func LoadRedisConfig() RedisConfig {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    return RedisConfig{
        Enabled:     envBool("REDIS_ENABLED", true),
        Addr:        addr,
        Password:    os.Getenv("REDIS_PASSWORD"),
        DB:          envInt("REDIS_DB", 0),
        TLS:         envBool("REDIS_TLS", false),
        TLSInsecure: envBool("REDIS_TLS_INSECURE", false),
    }
}

// NewRedisClient instantiates a Redis client from the environment.  The
// returned client is nil when Redis is disabled or does not answer a ping.
func NewRedisClient() *redis.Client {
    cfg := LoadRedisConfig()
    if !cfg.Enabled {
        return nil
    }
    var tlsConf *tls.Config
    if cfg.TLS {
        serverName := cfg.Addr
        if i := strings.LastIndex(serverName, ":"); i > 0 {
            serverName = serverName[:i]
        }
        tlsConf = &tls.Config{ServerName: serverName, InsecureSkipVerify: cfg.TLSInsecure}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
