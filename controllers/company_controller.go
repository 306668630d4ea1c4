package controller

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"assesshub/models"
	"assesshub/utils"
)

type CompanyController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCompanyController(db *gorm.DB, logger *log.Logger) *CompanyController {
	return &CompanyController{
		DB:     db,
		Logger: logger,
	}
}

type SetupCompanyRequest struct {
	Name            string   `json:"name" validate:"required,max=200"`
	LogoURL         string   `json:"logo_url" validate:"omitempty,url"`
	ExternalOrgID   string   `json:"external_org_id"`
	ApprovedDomains []string `json:"approved_domains"`

	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required,min=8"`
	AdminName     string `json:"admin_name" validate:"omitempty,max=100"`
}

// SetupCompany creates a tenant and its bootstrap admin credential in
// one transaction. Gated behind the admin bootstrap key.
func (cc *CompanyController) SetupCompany(c *fiber.Ctx) error {
	var req SetupCompanyRequest
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

	var existingCompany models.Company
	if err := cc.DB.Where("name = ?", req.Name).First(&existingCompany).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Company name already taken",
		})
	}

	var existingAdmin models.Admin
	if err := cc.DB.Where("email = ?", req.AdminEmail).First(&existingAdmin).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Admin email already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	company := models.Company{
		Name:            req.Name,
		ApprovedDomains: req.ApprovedDomains,
	}
	if req.LogoURL != "" {
		company.LogoURL = &req.LogoURL
	}
	if req.ExternalOrgID != "" {
		company.ExternalOrgID = &req.ExternalOrgID
	}

	admin := models.Admin{
		Email:        req.AdminEmail,
		PasswordHash: string(hashedPassword),
		Name:         req.AdminName,
		IsActive:     true,
		TokenVersion: 1,
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		admin.CompanyID = company.ID
		return tx.Create(&admin).Error
	})
	if err != nil {
		cc.Logger.Printf("Failed to set up company %s: %v", req.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to set up company",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"company": company,
		"admin":   admin,
	})
}

// DeleteCompany removes a tenant and every dependent row in a single
// transaction: team members, memberships, team invitations, user
// profiles, assessment results, invitation metadata, invitations,
// campaigns, then the company itself. All or nothing.
func (cc *CompanyController) DeleteCompany(c *fiber.Ctx) error {
	admin := c.Locals("admin").(*models.Admin)

	companyID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid company id",
		})
	}

	if admin.CompanyID != uint(companyID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Cannot delete another company",
		})
	}

	var company models.Company
	err = cc.DB.First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load company",
		})
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		var invitationIDs []uint
		if err := tx.Model(&models.Invitation{}).
			Where("company_id = ?", companyID).
			Pluck("id", &invitationIDs).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.TeamMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.TeamInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.UserProfile{}).Error; err != nil {
			return err
		}

		if len(invitationIDs) > 0 {
			if err := tx.Unscoped().Where("invitation_id IN ?", invitationIDs).Delete(&models.AssessmentResult{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("invitation_id IN ?", invitationIDs).Delete(&models.InvitationMetadata{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.Campaign{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&models.Admin{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.Company{}, companyID).Error
	})
	if err != nil {
		cc.Logger.Printf("Failed to delete company %d: %v", companyID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete company",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Company deleted",
	})
}
