package controller

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"assesshub/store"
	"assesshub/utils"
)

const shareTTL = 7 * 24 * time.Hour

// ShareController serves ephemeral result-share snapshots stored
// under share:<id>. Best effort and non-durable: a snapshot may
// vanish on restart when the store runs on the memory fallback.
type ShareController struct {
	KV     store.KV
	Logger *log.Logger
}

func NewShareController(kv store.KV, logger *log.Logger) *ShareController {
	return &ShareController{
		KV:     kv,
		Logger: logger,
	}
}

type CreateShareRequest struct {
	ToolName string                 `json:"tool_name" validate:"omitempty,max=200"`
	Result   map[string]interface{} `json:"result" validate:"required"`
}

func (sc *ShareController) CreateShare(c *fiber.Ctx) error {
	var req CreateShareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id := uuid.NewString()
	snapshot := fiber.Map{
		"id":         id,
		"tool_name":  req.ToolName,
		"result":     req.Result,
		"created_at": time.Now().UTC(),
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to encode share",
		})
	}

	if err := sc.KV.Set(c.Context(), "share:"+id, string(payload), shareTTL); err != nil {
		sc.Logger.Printf("Failed to store share: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store share",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": id,
	})
}

func (sc *ShareController) GetShare(c *fiber.Ctx) error {
	id := c.Params("id")

	payload, err := sc.KV.Get(c.Context(), "share:"+id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Share not found",
		})
	}
	if err != nil {
		sc.Logger.Printf("Failed to load share %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load share",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(payload)
}
