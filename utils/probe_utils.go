package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/launchdeck-platform/models"
)

// ProbeTarget identifies the instance a readiness probe should reach
type ProbeTarget struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// ProbeFunc is one protocol-specific liveness check. A nil error means
// the engine answered its native ping.
type ProbeFunc func(ctx context.Context, target ProbeTarget) error

// GetReadinessProbe returns the wire-level liveness check for an engine.
// Engines without a native driver fall back to a TCP dial, which still
// proves the instance accepted a connection.
func GetReadinessProbe(engine models.ResourceEngine) ProbeFunc {
	cfg, ok := engineConfigs[engine]
	if !ok {
		return ProbeTCP
	}
	switch cfg.ProbeKind {
	case "postgres":
		return ProbePostgres
	case "redis":
		return ProbeRedis
	default:
		return ProbeTCP
	}
}

// ProbePostgres opens a connection and executes the wire-level ping
func ProbePostgres(ctx context.Context, target ProbeTarget) error {
	conn, err := pgx.Connect(ctx, postgresDSN(target))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}

// postgresDSN builds the connection URL, escaping credentials so that
// any byte the generator (or an operator) puts in a password survives
// URL parsing intact.
func postgresDSN(target ProbeTarget) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(target.Username, target.Password),
		Host:     fmt.Sprintf("%s:%d", target.Host, target.Port),
		Path:     "/" + target.Database,
		RawQuery: "sslmode=disable&connect_timeout=5",
	}
	return u.String()
}

// ProbeRedis issues a PING command against the instance
func ProbeRedis(ctx context.Context, target ProbeTarget) error {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", target.Host, target.Port),
		Password:    target.Password,
		DialTimeout: 5 * time.Second,
	})
	defer client.Close()
	return client.Ping(ctx).Err()
}

// ProbeTCP checks that the instance accepts a TCP connection
func ProbeTCP(ctx context.Context, target ProbeTarget) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", target.Host, target.Port))
	if err != nil {
		return err
	}
	return conn.Close()
}
