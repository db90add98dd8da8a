package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/laras-id/laras-api/internal/config"
	"github.com/laras-id/laras-api/internal/utils"
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Uptime      string    `json:"uptime"`
}

// HealthCheck reports service liveness. Readiness of the database and redis is
// left to the infrastructure probes that own those connections.
func HealthCheck(cfg config.Config) fiber.Handler {
	startedAt := time.Now()
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Uptime:      time.Since(startedAt).Round(time.Second).String(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
