package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"assesshub/config"
	"assesshub/models"
)

type AdminController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAdminController(db *gorm.DB, logger *log.Logger) *AdminController {
	return &AdminController{
		DB:     db,
		Logger: logger,
	}
}

// CheckData returns per-table row counts for diagnostics.
func (ac *AdminController) CheckData(c *fiber.Ctx) error {
	tables := map[string]interface{}{
		"companies":           &models.Company{},
		"admins":              &models.Admin{},
		"user_profiles":       &models.UserProfile{},
		"campaigns":           &models.Campaign{},
		"invitations":         &models.Invitation{},
		"invitation_metadata": &models.InvitationMetadata{},
		"assessment_results":  &models.AssessmentResult{},
		"team_members":        &models.TeamMember{},
		"team_memberships":    &models.TeamMembership{},
		"team_invitations":    &models.TeamInvitation{},
	}

	counts := fiber.Map{}
	for name, model := range tables {
		var count int64
		if err := ac.DB.Model(model).Count(&count).Error; err != nil {
			ac.Logger.Printf("Failed to count %s: %v", name, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to count " + name,
			})
		}
		counts[name] = count
	}

	return c.JSON(fiber.Map{
		"counts": counts,
	})
}

// FlushData wipes every table in one transaction. Refused outside
// non-production environments; additionally gated behind the
// bootstrap key at the route level.
func (ac *AdminController) FlushData(c *fiber.Ctx) error {
	if config.AppConfig.Environment == "production" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Flush is disabled in production",
		})
	}

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		// Dependents first, tenant root last.
		ordered := []interface{}{
			&models.TeamMembership{},
			&models.TeamMember{},
			&models.TeamInvitation{},
			&models.AssessmentResult{},
			&models.InvitationMetadata{},
			&models.Invitation{},
			&models.Campaign{},
			&models.UserProfile{},
			&models.Admin{},
			&models.Company{},
		}
		for _, model := range ordered {
			if err := tx.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		ac.Logger.Printf("Flush failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Flush failed",
		})
	}

	return c.JSON(fiber.Map{
		"flushed": true,
	})
}
