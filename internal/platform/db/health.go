package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const (
	DBStatusConnected    = "connected"
	DBStatusDisconnected = "disconnected"
)

// Pinger is the part of the pool the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string  `json:"status"`
	DBStatus string  `json:"dbStatus"`
	Uptime   float64 `json:"uptime"`
}

// HealthHandler reports process uptime in seconds since started and whether
// the database answers a ping. It always responds 200 so load balancers can
// tell a live process apart from a dead one.
func HealthHandler(p Pinger, started time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		status := DBStatusConnected
		if p == nil || p.Ping(ctx) != nil {
			status = DBStatusDisconnected
		}

		return c.JSON(http.StatusOK, HealthResponse{
			Status:   "OK",
			DBStatus: status,
			Uptime:   time.Since(started).Seconds(),
		})
	}
}
