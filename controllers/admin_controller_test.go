package controller_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"assesshub/config"
	"assesshub/models"
)

func TestCheckData_ReportsRowCounts(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	require.NoError(t, env.db.Create(&models.Campaign{
		CampaignCode: "ACME0001",
		Name:         "Q1 Review",
		CampaignType: models.CampaignTypeHR,
		CompanyID:    company.ID,
	}).Error)

	resp := doRequest(t, env.app, http.MethodGet, "/api/admin/check-data", nil, bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Counts map[string]int64 `json:"counts"`
	}
	decodeBody(t, resp, &body)
	require.EqualValues(t, 1, body.Counts["companies"])
	require.EqualValues(t, 1, body.Counts["admins"])
	require.EqualValues(t, 1, body.Counts["campaigns"])
	require.EqualValues(t, 0, body.Counts["invitations"])
	require.Contains(t, body.Counts, "assessment_results")
	require.Contains(t, body.Counts, "team_members")
}

func TestFlushData_WipesEverything(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	require.NoError(t, env.db.Create(&models.Campaign{
		CampaignCode: "ACME0001",
		Name:         "Q1 Review",
		CampaignType: models.CampaignTypeHR,
		CompanyID:    company.ID,
	}).Error)

	resp := doRequest(t, env.app, http.MethodDelete, "/api/admin/check-data", nil, withBootstrapKey("bootstrap-key"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, model := range []interface{}{
		&models.Company{}, &models.Admin{}, &models.Campaign{},
	} {
		var count int64
		require.NoError(t, env.db.Unscoped().Model(model).Count(&count).Error)
		require.Zero(t, count, "%T rows survived flush", model)
	}
}

func TestFlushData_RefusedInProduction(t *testing.T) {
	env := setupTestEnv(t)

	config.AppConfig.Environment = "production"
	t.Cleanup(func() { config.AppConfig.Environment = "test" })

	resp := doRequest(t, env.app, http.MethodDelete, "/api/admin/check-data", nil, withBootstrapKey("bootstrap-key"))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateLead_StoresRecordAndCounters(t *testing.T) {
	env := setupTestEnv(t)

	resp := doRequest(t, env.app, http.MethodPost, "/api/leads", map[string]string{
		"email":  "lead@example.com",
		"name":   "Interested Lead",
		"source": "homepage",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.ID)

	ctx := context.Background()
	record, err := env.kv.Get(ctx, "lead:"+body.ID)
	require.NoError(t, err)
	require.Contains(t, record, "lead@example.com")

	count, err := env.kv.Get(ctx, "leads:source:homepage")
	require.NoError(t, err)
	require.Equal(t, "1", count)
}

func TestCreateLead_RejectsBadEmail(t *testing.T) {
	env := setupTestEnv(t)

	resp := doRequest(t, env.app, http.MethodPost, "/api/leads", map[string]string{
		"email": "not-an-email",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLead_EnforcesFieldLimits(t *testing.T) {
	env := setupTestEnv(t)

	resp := doRequest(t, env.app, http.MethodPost, "/api/leads", map[string]string{
		"email":   "lead@example.com",
		"message": strings.Repeat("x", 2001),
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, env.app, http.MethodPost, "/api/leads", map[string]string{
		"email":  "lead@example.com",
		"source": strings.Repeat("s", 51),
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClearLeads_DisabledOnMemoryFallback(t *testing.T) {
	env := setupTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	admin := createTestAdmin(t, env.db, company.ID, "admin@acme.com", "password123")
	token := adminToken(t, admin)

	resp := doRequest(t, env.app, http.MethodDelete, "/api/admin/leads", nil, bearer(token))
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
