package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/petrovi-4/habit-tracker-backend/internal/handlers"
	"github.com/petrovi-4/habit-tracker-backend/internal/middleware"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/services"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Habit{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	habitRepo := repos.NewHabitRepo(db, log)

	authService := services.NewAuthService(db, log, userRepo, tokenRepo, nil, "test-secret", time.Hour, 24*time.Hour)
	userService := services.NewUserService(db, log, userRepo)
	habitService := services.NewHabitService(db, log, habitRepo)

	return NewRouter(RouterConfig{
		AuthHandler:    handlers.NewAuthHandler(authService),
		AuthMiddleware: middleware.NewAuthMiddleware(log, authService),
		UserHandler:    handlers.NewUserHandler(log, userService),
		HabitHandler:   handlers.NewHabitHandler(log, habitService),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerAndLogin(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"email":    email,
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"email":    email,
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["access_token"].(string)
	if token == "" {
		t.Fatal("login response has no access token")
	}
	return token
}

func TestHealthcheck(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthcheck", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHabitEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	for _, tt := range []struct{ method, path string }{
		{http.MethodPost, "/api/habits"},
		{http.MethodGet, "/api/habits"},
		{http.MethodGet, "/api/habits/public"},
		{http.MethodPatch, "/api/habits/0d9b0c5e-0000-0000-0000-000000000000"},
		{http.MethodDelete, "/api/habits/0d9b0c5e-0000-0000-0000-000000000000"},
		{http.MethodGet, "/api/user"},
	} {
		rec := doJSON(t, router, tt.method, tt.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tt.method, tt.path, rec.Code)
		}
	}
}

func TestHabitCreateAndFetch(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/habits", token, gin.H{
		"action":            "Run",
		"time":              "17:31:00",
		"lead_time_minutes": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	if created["periodicity_days"] != float64(1) {
		t.Errorf("periodicity = %v, want default 1", created["periodicity_days"])
	}
	if created["is_public"] != false || created["is_pleasurable"] != false {
		t.Errorf("flags not defaulted: %v", created)
	}

	id, _ := created["id"].(string)
	rec = doJSON(t, router, http.MethodGet, "/api/habits/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHabitCreateValidationStatus(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/habits", token, gin.H{
		"action":            "Run",
		"time":              "17:31:00",
		"lead_time_minutes": 121,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["message"] != "lead time must be at most 120 minutes" {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestHabitOwnershipOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := registerAndLogin(t, router, "owner@example.com")
	strangerToken := registerAndLogin(t, router, "stranger@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/habits", ownerToken, gin.H{
		"action":            "Run",
		"time":              "17:31:00",
		"lead_time_minutes": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	id, _ := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodGet, "/api/habits/"+id, strangerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger get: status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/api/habits/"+id, strangerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger delete: status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/api/habits/"+id, ownerToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("owner delete: status = %d, want 204", rec.Code)
	}
}

func TestPublicHabitListingOmitsOwnerData(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := registerAndLogin(t, router, "owner@example.com")
	viewerToken := registerAndLogin(t, router, "viewer@example.com")

	for i, public := range []bool{true, false} {
		rec := doJSON(t, router, http.MethodPost, "/api/habits", ownerToken, gin.H{
			"action":            fmt.Sprintf("Habit %d", i),
			"time":              "08:00:00",
			"lead_time_minutes": 10,
			"is_public":         public,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: status %d", rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/habits/public", viewerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list public: status %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("public items = %d, want 1", len(items))
	}
	item, _ := items[0].(map[string]any)
	if _, hasID := item["id"]; hasID {
		t.Error("public listing leaks habit id")
	}
	if _, hasOwner := item["user_id"]; hasOwner {
		t.Error("public listing leaks owner id")
	}
}

func TestUserEndpoints(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/user", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get me: status %d", rec.Code)
	}
	me := decodeBody(t, rec)
	if me["email"] != "alice@example.com" {
		t.Errorf("unexpected profile: %v", me)
	}

	rec = doJSON(t, router, http.MethodPatch, "/api/user", token, gin.H{
		"telegram_chat_id": "123456789",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update me: status %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody(t, rec)
	if updated["telegram_chat_id"] != "123456789" {
		t.Errorf("chat id not updated: %v", updated)
	}
}
