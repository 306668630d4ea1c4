package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"assesshub/config"
	"assesshub/models"
	"assesshub/routes"
	"assesshub/store"
	"assesshub/utils"
)

func TestMain(m *testing.M) {
	config.AppConfig = config.Config{
		Environment:       "test",
		BaseURL:           "http://localhost:3000",
		JWTSecret:         "test-secret",
		AdminBootstrapKey: "bootstrap-key",
		RateLimitPublic:   1000,
	}
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory
	// database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, config.MigrateDB(db))
	return db
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	kv  store.KV
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	db := setupTestDB(t)
	kv := store.NewMemoryKV()

	app := fiber.New()
	routes.SetupRoutes(app, db, kv)

	return testEnv{app: app, db: db, kv: kv}
}

func createTestCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()

	company := &models.Company{Name: name}
	require.NoError(t, db.Create(company).Error)
	return company
}

func createTestAdmin(t *testing.T, db *gorm.DB, companyID uint, email, password string) *models.Admin {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &models.Admin{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test Admin",
		CompanyID:    companyID,
		IsActive:     true,
		TokenVersion: 1,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func adminToken(t *testing.T, admin *models.Admin) string {
	t.Helper()

	token, err := utils.GenerateAdminToken(admin)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
