package controller

import (
	"runtime"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// Health is the liveness probe: process status plus a memory
// snapshot.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": "1.0.0",
		"memory": fiber.Map{
			"alloc_mb":   m.Alloc / 1024 / 1024,
			"sys_mb":     m.Sys / 1024 / 1024,
			"num_gc":     m.NumGC,
			"goroutines": runtime.NumGoroutine(),
		},
	})
}

// DBHealth is the readiness probe: database connectivity and pool
// stats.
func (hc *HealthController) DBHealth(c *fiber.Ctx) error {
	sqlDB, err := hc.DB.DB()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"database": "down",
		})
	}

	if err := sqlDB.Ping(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"database": "down",
		})
	}

	stats := sqlDB.Stats()
	return c.JSON(fiber.Map{
		"database":         "up",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	})
}
