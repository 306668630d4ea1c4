package controller

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"assesshub/config"
	"assesshub/models"
	"assesshub/store"
	"assesshub/utils"
)

const (
	inviteCodeMaxAttempts = 5
	inviteFallbackPrefix  = "invite:fallback:"
	inviteFallbackTTL     = 30 * 24 * time.Hour
)

type InvitationController struct {
	DB     *gorm.DB
	KV     store.KV
	Mailer *utils.InviteMailer
	Logger *log.Logger
}

func NewInvitationController(db *gorm.DB, kv store.KV, mailer *utils.InviteMailer, logger *log.Logger) *InvitationController {
	return &InvitationController{
		DB:     db,
		KV:     kv,
		Mailer: mailer,
		Logger: logger,
	}
}

type CreateInvitationRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"omitempty,max=100"`
	CampaignCode    string `json:"campaign_code"`
	PersonalMessage string `json:"personal_message" validate:"omitempty,max=1000"`
}

// invitationProjection is the public-safe shape returned for an
// invite code lookup. It must never carry internal identifiers or
// other participants' data.
type invitationProjection struct {
	InviteCode      string     `json:"invite_code"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	PersonalMessage string     `json:"personal_message,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Company         struct {
		Name    string  `json:"name"`
		LogoURL *string `json:"logo_url,omitempty"`
	} `json:"company"`
	Tool *struct {
		ID   string `json:"id"`
		Path string `json:"path"`
		Name string `json:"name"`
	} `json:"tool,omitempty"`
}

// CreateInvitation generates a unique invite code and delivery URL
// for a participant. When SMTP is configured the dispatch step is
// folded into creation and the invitation starts out SENT.
func (ic *InvitationController) CreateInvitation(c *fiber.Ctx) error {
	admin := c.Locals("admin").(*models.Admin)

	var req CreateInvitationRequest
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

	var campaignID *uint
	if req.CampaignCode != "" {
		var campaign models.Campaign
		err := ic.DB.Where("campaign_code = ? AND company_id = ?", req.CampaignCode, admin.CompanyID).
			First(&campaign).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		if err != nil {
			ic.Logger.Printf("Failed to load campaign %s: %v", req.CampaignCode, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load campaign",
			})
		}
		campaignID = &campaign.ID
	}

	// One invitation per (email, campaign). The unique index is the
	// backstop; checking first gives the caller the existing row.
	if campaignID != nil {
		var existing models.Invitation
		err := ic.DB.Where("email = ? AND campaign_id = ?", req.Email, *campaignID).
			First(&existing).Error
		if err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":      "Invitation already exists for this email and campaign",
				"invitation": existing,
			})
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check existing invitations",
			})
		}
	}

	code, err := ic.uniqueInviteCode()
	if err != nil {
		ic.Logger.Printf("Failed to generate invite code: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate invite code",
		})
	}

	invitation := models.Invitation{
		InviteCode:      code,
		Email:           req.Email,
		Name:            req.Name,
		Status:          models.InvitationStatusPending,
		CompanyID:       admin.CompanyID,
		CampaignID:      campaignID,
		InviteURL:       utils.BuildInviteURL(config.AppConfig.BaseURL, code),
		PersonalMessage: req.PersonalMessage,
	}

	var company models.Company
	if err := ic.DB.First(&company, admin.CompanyID).Error; err != nil {
		ic.Logger.Printf("Failed to load company %d: %v", admin.CompanyID, err)
	}

	// Persist before dispatching: a delivered link must never point at
	// an invitation that failed to insert.
	if err := ic.DB.Create(&invitation).Error; err != nil {
		ic.Logger.Printf("Failed to create invitation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	if ic.Mailer != nil {
		if err := ic.Mailer.SendInvitation(req.Email, req.Name, company.Name, invitation.InviteURL, req.PersonalMessage); err != nil {
			ic.Logger.Printf("Failed to dispatch invitation email to %s: %v", req.Email, err)
		} else {
			invitation.Status = models.InvitationStatusSent
			if err := ic.DB.Model(&models.Invitation{}).
				Where("id = ?", invitation.ID).
				Update("status", models.InvitationStatusSent).Error; err != nil {
				ic.Logger.Printf("Failed to mark invitation %s sent: %v", invitation.InviteCode, err)
			}
		}
	}

	ic.writeFallbackSnapshot(c, &invitation, &company)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invitation": invitation,
	})
}

// uniqueInviteCode regenerates on collision with the unique code
// index, bounded to a handful of attempts.
func (ic *InvitationController) uniqueInviteCode() (string, error) {
	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		code, err := utils.GenerateInviteCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := ic.DB.Model(&models.Invitation{}).
			Where("invite_code = ?", code).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("exhausted invite code attempts")
}

// writeFallbackSnapshot stores the public projection in the KV
// namespace so lookups survive a database outage. Best effort.
func (ic *InvitationController) writeFallbackSnapshot(c *fiber.Ctx, inv *models.Invitation, company *models.Company) {
	projection := ic.project(inv, company, nil)
	payload, err := json.Marshal(projection)
	if err != nil {
		return
	}
	if err := ic.KV.Set(c.Context(), inviteFallbackPrefix+inv.InviteCode, string(payload), inviteFallbackTTL); err != nil {
		ic.Logger.Printf("Failed to write invitation fallback for %s: %v", inv.InviteCode, err)
	}
}

func (ic *InvitationController) project(inv *models.Invitation, company *models.Company, campaign *models.Campaign) invitationProjection {
	var p invitationProjection
	p.InviteCode = inv.InviteCode
	p.Email = inv.Email
	p.Name = inv.Name
	p.Status = inv.Status
	p.PersonalMessage = inv.PersonalMessage
	p.CompletedAt = inv.CompletedAt
	if company != nil {
		p.Company.Name = company.Name
		p.Company.LogoURL = company.LogoURL
	}
	if campaign != nil {
		p.Tool = &struct {
			ID   string `json:"id"`
			Path string `json:"path"`
			Name string `json:"name"`
		}{ID: campaign.ToolID, Path: campaign.ToolPath, Name: campaign.ToolName}
	}
	return p
}

// GetInvitationByCode is the public, unauthenticated lookup. It
// returns the restricted projection only; when the database is
// unreachable it serves the KV fallback snapshot instead.
func (ic *InvitationController) GetInvitationByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invite code is required",
		})
	}

	var invitation models.Invitation
	err := ic.DB.Where("invite_code = ?", code).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	}
	if err != nil {
		if snapshot, kvErr := ic.KV.Get(c.Context(), inviteFallbackPrefix+code); kvErr == nil {
			logrus.WithField("invite_code", code).Warn("serving invitation lookup from kv fallback")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(snapshot)
		}
		ic.Logger.Printf("Failed to look up invitation %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up invitation",
		})
	}

	var company models.Company
	if err := ic.DB.First(&company, invitation.CompanyID).Error; err != nil {
		ic.Logger.Printf("Failed to load company %d: %v", invitation.CompanyID, err)
	}

	var campaign *models.Campaign
	if invitation.CampaignID != nil {
		var cmp models.Campaign
		if err := ic.DB.First(&cmp, *invitation.CampaignID).Error; err == nil {
			campaign = &cmp
		}
	}

	return c.JSON(ic.project(&invitation, &company, campaign))
}

type CompleteInvitationRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// CompleteInvitation transitions an invitation to COMPLETED and
// stamps the completion time. Re-marking a completed invitation is a
// no-op; the first timestamp stays.
func (ic *InvitationController) CompleteInvitation(c *fiber.Ctx) error {
	var req CompleteInvitationRequest
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

	var invitation models.Invitation
	err := ic.DB.Where("invite_code = ?", req.InviteCode).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up invitation",
		})
	}

	if invitation.Status == models.InvitationStatusCompleted {
		return c.JSON(fiber.Map{
			"invitation": invitation,
		})
	}

	now := time.Now()
	invitation.Status = models.InvitationStatusCompleted
	invitation.CompletedAt = &now
	if err := ic.DB.Save(&invitation).Error; err != nil {
		ic.Logger.Printf("Failed to complete invitation %s: %v", req.InviteCode, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete invitation",
		})
	}

	return c.JSON(fiber.Map{
		"invitation": invitation,
	})
}

type SubmitResultRequest struct {
	ToolName string                 `json:"tool_name" validate:"omitempty,max=200"`
	Result   map[string]interface{} `json:"result" validate:"required"`
}

// SubmitResult records an assessment outcome against an invite code
// and marks the invitation complete if it is not already.
func (ic *InvitationController) SubmitResult(c *fiber.Ctx) error {
	code := c.Params("code")

	var req SubmitResultRequest
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

	var invitation models.Invitation
	err := ic.DB.Where("invite_code = ?", code).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up invitation",
		})
	}

	result := models.AssessmentResult{
		InvitationID: invitation.ID,
		ToolName:     req.ToolName,
		Payload:      req.Result,
	}
	if err := ic.DB.Create(&result).Error; err != nil {
		ic.Logger.Printf("Failed to store result for %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store result",
		})
	}

	if invitation.Status != models.InvitationStatusCompleted {
		now := time.Now()
		invitation.Status = models.InvitationStatusCompleted
		invitation.CompletedAt = &now
		if err := ic.DB.Save(&invitation).Error; err != nil {
			ic.Logger.Printf("Failed to mark invitation %s complete: %v", code, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"result":     result,
		"invitation": invitation,
	})
}

// Reconcile resets COMPLETED invitations that never recorded a
// result. Corrective maintenance, not part of the normal flow.
func (ic *InvitationController) Reconcile(c *fiber.Ctx) error {
	reset, err := models.ReconcileEmptyCompletions(ic.DB)
	if err != nil {
		ic.Logger.Printf("Reconciliation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Reconciliation failed",
		})
	}

	logrus.WithField("reset", reset).Info("reconciled empty completions")

	return c.JSON(fiber.Map{
		"reset": reset,
	})
}
