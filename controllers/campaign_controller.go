package controller

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"assesshub/config"
	"assesshub/models"
	"assesshub/utils"
)

const campaignCodeMaxAttempts = 5

type CampaignController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCampaignController(db *gorm.DB, logger *log.Logger) *CampaignController {
	return &CampaignController{
		DB:     db,
		Logger: logger,
	}
}

type CreateCampaignRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	ToolID      string `json:"tool_id" validate:"required"`
	ToolPath    string `json:"tool_path"`
	ToolName    string `json:"tool_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`

	// CreatorRole decides the campaign type once, at creation. It is
	// never re-derived when the role changes later.
	CreatorRole string `json:"creator_role" validate:"omitempty,oneof=ADMIN MANAGER TEAM_MEMBER"`
}

// CreateCampaign persists a campaign with a generated unique code and
// the type derived from the creator's role. Date-range ordering is
// not validated; the end date is advisory.
func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	admin := c.Locals("admin").(*models.Admin)

	var req CreateCampaignRequest
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

	role := req.CreatorRole
	if role == "" {
		role = models.UserTypeAdmin
	}

	code, err := cc.uniqueCampaignCode()
	if err != nil {
		cc.Logger.Printf("Failed to generate campaign code: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate campaign code",
		})
	}

	campaign := models.Campaign{
		CampaignCode: code,
		Name:         req.Name,
		Status:       models.CampaignStatusActive,
		CampaignType: models.DeriveCampaignType(role),
		CompanyID:    admin.CompanyID,
		StartDate:    parseDate(req.StartDate),
		EndDate:      parseDate(req.EndDate),
		ToolID:       req.ToolID,
		ToolPath:     req.ToolPath,
		ToolName:     req.ToolName,
		Description:  req.Description,
	}

	if err := cc.DB.Create(&campaign).Error; err != nil {
		cc.Logger.Printf("Failed to create campaign: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create campaign",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"campaign": campaign,
	})
}

func (cc *CampaignController) uniqueCampaignCode() (string, error) {
	for attempt := 0; attempt < campaignCodeMaxAttempts; attempt++ {
		code, err := utils.GenerateCampaignCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := cc.DB.Model(&models.Campaign{}).
			Where("campaign_code = ?", code).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("exhausted campaign code attempts")
}

// GetCampaignByCode is the public routing lookup. The description is
// treated as JSON metadata with a plain-text fallback.
func (cc *CampaignController) GetCampaignByCode(c *fiber.Ctx) error {
	code := c.Params("code")

	var campaign models.Campaign
	err := cc.DB.Where("campaign_code = ?", code).First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if err != nil {
		cc.Logger.Printf("Failed to look up campaign %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up campaign",
		})
	}

	return c.JSON(fiber.Map{
		"campaign_code": campaign.CampaignCode,
		"name":          campaign.Name,
		"status":        campaign.Status,
		"campaign_type": campaign.CampaignType,
		"company_id":    campaign.CompanyID,
		"start_date":    campaign.StartDate,
		"end_date":      campaign.EndDate,
		"tool": fiber.Map{
			"id":   campaign.ToolID,
			"path": campaign.ToolPath,
			"name": campaign.ToolName,
		},
		"metadata": parseDescription(campaign.Description),
	})
}

type RegisterParticipantRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

// RegisterParticipant creates or returns the invitation for a
// participant under a campaign. One invitation per (email, campaign):
// a repeat registration gets the existing invitation back, and a
// concurrent duplicate create resolves the same way off the unique
// index.
func (cc *CampaignController) RegisterParticipant(c *fiber.Ctx) error {
	code := c.Params("code")

	var req RegisterParticipantRequest
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

	var campaign models.Campaign
	err := cc.DB.Where("campaign_code = ?", code).First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up campaign",
		})
	}

	var existing models.Invitation
	err = cc.DB.Where("email = ? AND campaign_id = ?", req.Email, campaign.ID).
		First(&existing).Error
	if err == nil {
		return c.JSON(fiber.Map{
			"invitation": existing,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check existing invitations",
		})
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate invite code",
		})
	}

	invitation := models.Invitation{
		InviteCode: inviteCode,
		Email:      req.Email,
		Name:       req.Name,
		Status:     models.InvitationStatusPending,
		CompanyID:  campaign.CompanyID,
		CampaignID: &campaign.ID,
		InviteURL:  utils.BuildInviteURL(config.AppConfig.BaseURL, inviteCode),
	}

	if err := cc.DB.Create(&invitation).Error; err != nil {
		// A concurrent registration may have won the unique index
		// race; return its row.
		var winner models.Invitation
		if lookupErr := cc.DB.Where("email = ? AND campaign_id = ?", req.Email, campaign.ID).
			First(&winner).Error; lookupErr == nil {
			return c.JSON(fiber.Map{
				"invitation": winner,
			})
		}
		cc.Logger.Printf("Failed to register participant %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register participant",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invitation": invitation,
	})
}

// ListCampaigns returns the campaigns of the authenticated admin's
// company, newest first.
func (cc *CampaignController) ListCampaigns(c *fiber.Ctx) error {
	admin := c.Locals("admin").(*models.Admin)

	var campaigns []models.Campaign
	if err := cc.DB.Where("company_id = ?", admin.CompanyID).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		cc.Logger.Printf("Failed to list campaigns: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list campaigns",
		})
	}

	return c.JSON(fiber.Map{
		"campaigns": campaigns,
	})
}

// parseDescription treats the free-text description as JSON when it
// parses, otherwise wraps the raw text.
func parseDescription(description string) interface{} {
	if description == "" {
		return nil
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(description), &parsed); err == nil {
		return parsed
	}
	return fiber.Map{"text": description}
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Accept bare dates as well
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil
		}
	}
	return &t
}
