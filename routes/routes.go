package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "assesshub/controllers"
	"assesshub/middleware"
	"assesshub/store"
	"assesshub/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, kv store.KV) {
	authController := controller.NewAuthController(db, log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile))
	invitationController := controller.NewInvitationController(db, kv, utils.NewInviteMailerFromConfig(), log.New(os.Stdout, "INVITE: ", log.LstdFlags))
	campaignController := controller.NewCampaignController(db, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	companyController := controller.NewCompanyController(db, log.New(os.Stdout, "COMPANY: ", log.LstdFlags))
	adminController := controller.NewAdminController(db, log.New(os.Stdout, "ADMIN: ", log.LstdFlags))
	leadController := controller.NewLeadController(kv, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	shareController := controller.NewShareController(kv, log.New(os.Stdout, "SHARE: ", log.LstdFlags))
	healthController := controller.NewHealthController(db)

	api := app.Group("/api", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Probes
	api.Get("/health", healthController.Health)
	api.Get("/db-health", healthController.DBHealth)

	// Credential session lifecycle
	auth := api.Group("/auth")
	auth.Post("/signin", authController.SignIn)
	protectedAuth := auth.Group("", middleware.Protected(db))
	protectedAuth.Get("/me", authController.Me)
	protectedAuth.Post("/logout", authController.SignOut)
	protectedAuth.Post("/change-password", authController.ChangePassword)

	// Invitations: public participant surface plus admin management
	api.Get("/invitations/:code", middleware.PublicRateLimiter(), invitationController.GetInvitationByCode)
	api.Post("/invitations/complete", invitationController.CompleteInvitation)
	api.Post("/invitations/:code/results", invitationController.SubmitResult)
	api.Post("/invitations", middleware.Protected(db), invitationController.CreateInvitation)
	api.Post("/invitations/reconcile", middleware.Protected(db), invitationController.Reconcile)

	// Campaigns
	api.Get("/campaigns/by-code/:code", campaignController.GetCampaignByCode)
	api.Post("/campaigns/:code/register", middleware.PublicRateLimiter(), campaignController.RegisterParticipant)
	api.Post("/campaigns", middleware.Protected(db), campaignController.CreateCampaign)
	api.Get("/campaigns", middleware.Protected(db), campaignController.ListCampaigns)

	// Companies
	api.Post("/companies/setup", middleware.RequireBootstrapKey(), companyController.SetupCompany)
	api.Delete("/companies/:id", middleware.Protected(db), companyController.DeleteCompany)

	// Leads & shares (ephemeral key-value surface)
	api.Post("/leads", middleware.PublicRateLimiter(), leadController.CreateLead)
	api.Post("/shares", middleware.PublicRateLimiter(), shareController.CreateShare)
	api.Get("/shares/:id", shareController.GetShare)

	// Diagnostics. The flush route is bootstrap-key gated and must be
	// registered before the session-protected group claims the prefix.
	api.Delete("/admin/check-data", middleware.RequireBootstrapKey(), adminController.FlushData)
	admin := api.Group("/admin", middleware.Protected(db))
	admin.Get("/check-data", adminController.CheckData)
	admin.Delete("/leads", leadController.ClearLeads)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	log.Println("API routes initialized successfully")
}
