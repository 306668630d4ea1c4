package controller_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"assesshub/config"
	"assesshub/models"
)

func TestGetInvitationByCode_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := doRequest(t, env.app, http.MethodGet, "/api/invitations/abcd-abcd-abcd", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateInvitation_AndPublicLookup(t *testing.T) {
	env := setupTestEnv(t)

	logo := "https://cdn.example.com/acme.png"
	company := &models.Company{Name: "Acme", LogoURL: &logo}
	require.NoError(t, env.db.Create(company).Error)
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations", map[string]string{
		"email":            "a@acme.com",
		"name":             "Alice",
		"personal_message": "Welcome aboard",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Invitation models.Invitation `json:"invitation"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Invitation.InviteCode)
	require.Equal(t, models.InvitationStatusPending, created.Invitation.Status)
	require.Contains(t, created.Invitation.InviteURL, created.Invitation.InviteCode)

	// Another participant whose data must never leak into the lookup.
	other := models.Invitation{
		InviteCode: "zzzz-zzzz-zzzz",
		Email:      "b@acme.com",
		Name:       "Bob",
		Status:     models.InvitationStatusPending,
		CompanyID:  company.ID,
	}
	require.NoError(t, env.db.Create(&other).Error)

	resp = doRequest(t, env.app, http.MethodGet, "/api/invitations/"+created.Invitation.InviteCode, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var projection map[string]interface{}
	decodeBody(t, resp, &projection)
	require.Equal(t, "a@acme.com", projection["email"])
	require.Equal(t, "Alice", projection["name"])
	require.Equal(t, "Welcome aboard", projection["personal_message"])

	companyInfo := projection["company"].(map[string]interface{})
	require.Equal(t, "Acme", companyInfo["name"])
	require.Equal(t, logo, companyInfo["logo_url"])

	// Restricted projection: no internal identifiers, nothing from
	// the other invitation.
	require.NotContains(t, projection, "ID")
	require.NotContains(t, projection, "company_id")
	require.NotEqual(t, "b@acme.com", projection["email"])
}

func TestCreateInvitation_DuplicatePerCampaign(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	campaign := models.Campaign{
		CampaignCode: "CAMP2345",
		Name:         "Q1 Review",
		Status:       models.CampaignStatusActive,
		CampaignType: models.CampaignTypeHR,
		CompanyID:    company.ID,
	}
	require.NoError(t, env.db.Create(&campaign).Error)

	body := map[string]string{
		"email":         "a@acme.com",
		"name":          "Alice",
		"campaign_code": campaign.CampaignCode,
	}

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations", body, bearer(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, env.app, http.MethodPost, "/api/invitations", body, bearer(token))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Invitation{}).
		Where("email = ? AND campaign_id = ?", "a@acme.com", campaign.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCompleteInvitation_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations/complete", map[string]string{
		"invite_code": "0000-0000-0000",
	}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompleteInvitation_Idempotent(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	invitation := models.Invitation{
		InviteCode: "aaaa-bbbb-cccc",
		Email:      "a@acme.com",
		Status:     models.InvitationStatusSent,
		CompanyID:  company.ID,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations/complete", map[string]string{
		"invite_code": invitation.InviteCode,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first models.Invitation
	require.NoError(t, env.db.Where("invite_code = ?", invitation.InviteCode).First(&first).Error)
	require.Equal(t, models.InvitationStatusCompleted, first.Status)
	require.NotNil(t, first.CompletedAt)

	time.Sleep(10 * time.Millisecond)

	resp = doRequest(t, env.app, http.MethodPost, "/api/invitations/complete", map[string]string{
		"invite_code": invitation.InviteCode,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second models.Invitation
	require.NoError(t, env.db.Where("invite_code = ?", invitation.InviteCode).First(&second).Error)
	require.Equal(t, models.InvitationStatusCompleted, second.Status)
	require.NotNil(t, second.CompletedAt)
	// The first completion timestamp is stable.
	require.True(t, first.CompletedAt.Equal(*second.CompletedAt))
}

func TestSubmitResult_CompletesInvitation(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	invitation := models.Invitation{
		InviteCode: "dddd-eeee-ffff",
		Email:      "a@acme.com",
		Status:     models.InvitationStatusSent,
		CompanyID:  company.ID,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations/"+invitation.InviteCode+"/results", map[string]interface{}{
		"tool_name": "leadership-styles",
		"result":    map[string]interface{}{"score": 42},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var stored models.Invitation
	require.NoError(t, env.db.Where("invite_code = ?", invitation.InviteCode).First(&stored).Error)
	require.Equal(t, models.InvitationStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	var results int64
	require.NoError(t, env.db.Model(&models.AssessmentResult{}).
		Where("invitation_id = ?", invitation.ID).
		Count(&results).Error)
	require.EqualValues(t, 1, results)
}

func TestReconcile_ResetsOnlyEmptyCompletions(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	now := time.Now()
	empty := models.Invitation{
		InviteCode:  "1111-1111-1111",
		Email:       "empty@acme.com",
		Status:      models.InvitationStatusCompleted,
		CompletedAt: &now,
		CompanyID:   company.ID,
	}
	withResult := models.Invitation{
		InviteCode:  "2222-2222-2222",
		Email:       "full@acme.com",
		Status:      models.InvitationStatusCompleted,
		CompletedAt: &now,
		CompanyID:   company.ID,
	}
	pending := models.Invitation{
		InviteCode: "3333-3333-3333",
		Email:      "pending@acme.com",
		Status:     models.InvitationStatusPending,
		CompanyID:  company.ID,
	}
	require.NoError(t, env.db.Create(&empty).Error)
	require.NoError(t, env.db.Create(&withResult).Error)
	require.NoError(t, env.db.Create(&pending).Error)
	require.NoError(t, env.db.Create(&models.AssessmentResult{
		InvitationID: withResult.ID,
		ToolName:     "leadership-styles",
	}).Error)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations/reconcile", nil, bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Reset int64 `json:"reset"`
	}
	decodeBody(t, resp, &body)
	require.EqualValues(t, 1, body.Reset)

	// Fresh structs per lookup: reusing one would carry the previous
	// primary key into the next query's conditions.
	var reloadedEmpty models.Invitation
	require.NoError(t, env.db.First(&reloadedEmpty, empty.ID).Error)
	require.Equal(t, models.InvitationStatusPending, reloadedEmpty.Status)
	require.Nil(t, reloadedEmpty.CompletedAt)

	var reloadedWithResult models.Invitation
	require.NoError(t, env.db.First(&reloadedWithResult, withResult.ID).Error)
	require.Equal(t, models.InvitationStatusCompleted, reloadedWithResult.Status)
	require.NotNil(t, reloadedWithResult.CompletedAt)

	var reloadedPending models.Invitation
	require.NoError(t, env.db.First(&reloadedPending, pending.ID).Error)
	require.Equal(t, models.InvitationStatusPending, reloadedPending.Status)
}

func TestCreateInvitation_RequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations", map[string]string{
		"email": "a@acme.com",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetInvitationByCode_ServesFallbackWhenDatabaseDown(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations", map[string]string{
		"email": "a@acme.com",
		"name":  "Alice",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Invitation models.Invitation `json:"invitation"`
	}
	decodeBody(t, resp, &created)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp = doRequest(t, env.app, http.MethodGet, "/api/invitations/"+created.Invitation.InviteCode, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var projection map[string]interface{}
	decodeBody(t, resp, &projection)
	require.Equal(t, created.Invitation.InviteCode, projection["invite_code"])
	require.Equal(t, "a@acme.com", projection["email"])
	company2 := projection["company"].(map[string]interface{})
	require.Equal(t, "Acme", company2["name"])
}

func TestCreateInvitation_PersistsWhenDispatchFails(t *testing.T) {
	// An unreachable SMTP host makes every dispatch fail.
	config.AppConfig.SMTPHost = "127.0.0.1"
	config.AppConfig.SMTPPort = 1
	config.AppConfig.FromEmail = "noreply@acme.com"
	t.Cleanup(func() {
		config.AppConfig.SMTPHost = ""
		config.AppConfig.SMTPPort = 0
		config.AppConfig.FromEmail = ""
	})

	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	resp := doRequest(t, env.app, http.MethodPost, "/api/invitations", map[string]string{
		"email": "a@acme.com",
		"name":  "Alice",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Invitation models.Invitation `json:"invitation"`
	}
	decodeBody(t, resp, &created)

	// The row exists before dispatch is attempted, so the failed send
	// leaves a resolvable PENDING invitation rather than a dead link.
	var stored models.Invitation
	require.NoError(t, env.db.Where("invite_code = ?", created.Invitation.InviteCode).First(&stored).Error)
	require.Equal(t, models.InvitationStatusPending, stored.Status)
}
