package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/freelancehub/backend/internal/lifecycle"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/utils"
)

const testSecret = "test-secret"

type testEnv struct {
	App    *fiber.App
	DB     *gorm.DB
	Engine *lifecycle.Engine
}

// newTestEnv wires the full route table against an in-memory database, with
// the real cookie JWT middleware so tests go through the same auth path as
// production traffic. Redis is left nil; the hub runs but nothing connects.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.FreelancerProfile{},
		&models.Project{},
		&models.Proposal{},
		&models.Message{},
		&models.Review{},
	))

	engine := lifecycle.NewEngine(db)
	hub := realtime.NewHub()
	go hub.Run()

	uploadDir := t.TempDir()

	authHandler := &AuthHandler{DB: db, JWTSecret: testSecret, Expires: 60}
	profileHandler := NewProfileHandler(db, uploadDir, "")
	projectHandler := NewProjectHandler(db, engine)
	proposalHandler := NewProposalHandler(db, engine)
	messageHandler := NewMessageHandler(db, engine, hub, nil, uploadDir, "")
	reviewHandler := NewReviewHandler(db, engine)
	dashboardHandler := NewDashboardHandler(db)

	app := fiber.New()

	api := app.Group("/api/v1")
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/logout", authHandler.Logout)

	protected := api.Group("",
		middleware.JWTFromCookie(testSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/profile/me", profileHandler.Me)
	protected.Patch("/profile/me", profileHandler.Update)
	protected.Post("/profile/photo", profileHandler.UploadPhoto)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", middleware.RequireRoles(string(models.RoleClient)), projectHandler.Create)
	protected.Get("/projects/:id", projectHandler.Detail)
	protected.Post("/projects/:id/complete", middleware.RequireRoles(string(models.RoleClient)), projectHandler.Complete)

	protected.Get("/projects/:id/proposals", middleware.RequireRoles(string(models.RoleClient)), proposalHandler.ListForProject)
	protected.Post("/projects/:id/proposals", middleware.RequireRoles(string(models.RoleFreelancer)), proposalHandler.Submit)
	protected.Get("/proposals/mine", middleware.RequireRoles(string(models.RoleFreelancer)), proposalHandler.ListMine)
	protected.Post("/proposals/:id/accept", middleware.RequireRoles(string(models.RoleClient)), proposalHandler.Accept)

	protected.Get("/projects/:id/messages", messageHandler.List)
	protected.Post("/projects/:id/messages", messageHandler.Send)

	protected.Post("/projects/:id/reviews", middleware.RequireRoles(string(models.RoleClient)), reviewHandler.Create)
	protected.Get("/freelancers/:id/reviews", reviewHandler.ListForFreelancer)

	protected.Get("/dashboard/client", middleware.RequireRoles(string(models.RoleClient)), dashboardHandler.Client)
	protected.Get("/dashboard/freelancer", middleware.RequireRoles(string(models.RoleFreelancer)), dashboardHandler.Freelancer)

	ws := app.Group("/ws",
		middleware.JWTFromCookie(testSecret),
		middleware.AttachJWTLocals(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	ws.Get("/chat", websocket.New(messageHandler.WebSocketHandler))

	return &testEnv{App: app, DB: db, Engine: engine}
}

func (e *testEnv) createUser(t *testing.T, role models.Role, email string) *models.User {
	t.Helper()

	hashed, err := utils.HashPassword("testpass123")
	require.NoError(t, err)

	u := models.User{
		Name:     "User " + email,
		Email:    email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.DB.Create(&u).Error)

	switch role {
	case models.RoleClient:
		require.NoError(t, e.DB.Create(&models.ClientProfile{UserID: u.ID}).Error)
	case models.RoleFreelancer:
		skills, err := MarshalSkills([]string{"Go"})
		require.NoError(t, err)
		require.NoError(t, e.DB.Create(&models.FreelancerProfile{UserID: u.ID, Skills: skills}).Error)
	}

	return &u
}

func (e *testEnv) cookieFor(t *testing.T, u *models.User) *http.Cookie {
	t.Helper()
	token, err := utils.SignJWT(testSecret, u.ID.String(), string(u.Role), 60)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.TokenCookie, Value: token}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var parsed map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func dataMap(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object, got %v", body)
	return data
}
