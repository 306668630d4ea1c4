package controller

import (
	"encoding/json"
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"assesshub/store"
	"assesshub/utils"
)

// Marketing leads live only in the ephemeral key-value namespace:
// lead:<id> for the record, leads:daily:<date> and leads:source:<src>
// for counters.
type LeadController struct {
	KV     store.KV
	Logger *log.Logger
}

func NewLeadController(kv store.KV, logger *log.Logger) *LeadController {
	return &LeadController{
		KV:     kv,
		Logger: logger,
	}
}

type CreateLeadRequest struct {
	Email   string `json:"email" validate:"required"`
	Name    string `json:"name" validate:"omitempty,max=100"`
	Source  string `json:"source" validate:"omitempty,max=50"`
	Message string `json:"message" validate:"omitempty,max=2000"`
}

func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var req CreateLeadRequest
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

	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email must be a valid email",
		})
	}

	id := uuid.NewString()
	record := fiber.Map{
		"id":         id,
		"email":      req.Email,
		"name":       req.Name,
		"source":     req.Source,
		"message":    req.Message,
		"created_at": time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to encode lead",
		})
	}

	ctx := c.Context()
	if err := lc.KV.Set(ctx, "lead:"+id, string(payload), 0); err != nil {
		lc.Logger.Printf("Failed to store lead: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store lead",
		})
	}

	// Counters are best effort; a missed bump is not worth failing
	// the capture.
	if _, err := lc.KV.Incr(ctx, "leads:daily:"+time.Now().UTC().Format("2006-01-02")); err != nil {
		lc.Logger.Printf("Failed to bump daily lead counter: %v", err)
	}
	if req.Source != "" {
		if _, err := lc.KV.Incr(ctx, "leads:source:"+req.Source); err != nil {
			lc.Logger.Printf("Failed to bump source lead counter: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": id,
	})
}

// ClearLeads wipes the lead namespace. Only meaningful against the
// shared store; with the memory fallback there is nothing durable to
// clear, so the operation is disabled.
func (lc *LeadController) ClearLeads(c *fiber.Ctx) error {
	if !lc.KV.Durable() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Lead clearing requires the key-value store",
		})
	}

	ctx := c.Context()
	for _, prefix := range []string{"lead:", "leads:daily:", "leads:source:"} {
		if err := lc.KV.DeleteByPrefix(ctx, prefix); err != nil {
			lc.Logger.Printf("Failed to clear %s keys: %v", prefix, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to clear leads",
			})
		}
	}

	return c.JSON(fiber.Map{
		"cleared": true,
	})
}
