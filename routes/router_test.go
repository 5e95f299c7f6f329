package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/blogkit/comments/config"
	"github.com/blogkit/comments/routes"
	"github.com/blogkit/comments/store"
	"github.com/blogkit/comments/utils"
)

func setupTestRouter(t *testing.T, approvedDefault bool) (*gin.Engine, *store.Store, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	staticDir := t.TempDir()
	dataFile := filepath.Join(t.TempDir(), "comments.json")

	hash, err := utils.HashPassword("letmein")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	cfg := config.AppConfig{
		AppPort:            "0",
		GinMode:            "test",
		StaticDir:          staticDir,
		DataFile:           dataFile,
		ApprovedDefault:    approvedDefault,
		RateLimitPerMinute: 6000,
		AllowedOrigins:     []string{"*"},
		AdminUsername:      "admin",
		AdminPasswordHash:  hash,
		JWTSecret:          "test-secret",
		LogLevel:           "error",
	}
	config.Set(cfg)
	if err := utils.InitLogger(cfg); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	s, err := store.Open(dataFile, approvedDefault)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	return routes.SetupRouter(s), s, staticDir
}

func doJSON(router *gin.Engine, method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestListRequiresPostID(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "GET", "/api/comments", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestListUnknownPostReturnsEmptyArray(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "GET", "/api/comments?post_id=nothing-here", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var list []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("expected a JSON array, got %q: %v", w.Body.String(), err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty array, got %d entries", len(list))
	}
}

func TestCreateAndListFlow(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "POST", "/api/comments", map[string]string{
		"post_id":    "on-simplicity",
		"author":     "Ada",
		"author_url": "https://example.com",
		"email":      "ada@example.com",
		"body":       "I <3 this post",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created comment: %v", err)
	}
	if _, ok := created["email"]; ok {
		t.Error("email must never appear in API output")
	}
	if created["author"] != "Ada" {
		t.Errorf("expected author Ada, got %v", created["author"])
	}
	if created["body"] != "I &lt;3 this post" {
		t.Errorf("expected escaped body, got %v", created["body"])
	}
	if created["time_formatted"] != "just now" {
		t.Errorf("expected time_formatted 'just now', got %v", created["time_formatted"])
	}
	if created["approved"] != true {
		t.Errorf("expected approved=true by default, got %v", created["approved"])
	}

	w = doJSON(router, "GET", "/api/comments?post_id=on-simplicity", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(list))
	}
	if _, ok := list[0]["email"]; ok {
		t.Error("email must never appear in the listing")
	}
	if list[0]["id"] != created["id"] {
		t.Errorf("listed id %v does not match created id %v", list[0]["id"], created["id"])
	}
}

func TestCreateAcceptsLegacyFieldNames(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "POST", "/api/comments", map[string]string{
		"post_id": "hello-world",
		"author":  "Bob",
		"text":    "old widget payload",
		"website": "https://bob.example",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created["body"] != "old widget payload" {
		t.Errorf("expected legacy text mapped to body, got %v", created["body"])
	}
	if created["author_url"] != "https://bob.example" {
		t.Errorf("expected legacy website mapped to author_url, got %v", created["author_url"])
	}

	// legacy query key on the read side
	w = doJSON(router, "GET", "/api/comments?post=hello-world", nil, "")
	var list []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 comment via legacy query key, got %d", len(list))
	}
}

func TestCreateValidationFailure(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "POST", "/api/comments", map[string]string{
		"post_id": "p",
		"author":  "   ",
		"body":    "hi",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp utils.JSONResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !bytes.Contains([]byte(resp.Message), []byte("author")) {
		t.Errorf("expected message to name the offending field, got %q", resp.Message)
	}

	w = doJSON(router, "GET", "/api/comments?post_id=p", nil, "")
	var list []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 0 {
		t.Errorf("failed create must not mutate the store, got %d comments", len(list))
	}
}

func TestCreateMalformedPayload(t *testing.T) {
	router, _, _ := setupTestRouter(t, true)

	w := doJSON(router, "POST", "/api/comments", map[string]interface{}{
		"post_id": "p",
		"author":  123,
		"body":    "hi",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for wrong field type, got %d", w.Code)
	}
}

func TestStaticServingAndNotFound(t *testing.T) {
	router, _, staticDir := setupTestRouter(t, true)

	if err := os.WriteFile(filepath.Join(staticDir, "about.html"), []byte("<h1>about</h1>"), 0o644); err != nil {
		t.Fatalf("write static file: %v", err)
	}

	w := doJSON(router, "GET", "/about.html", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for static file, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("about")) {
		t.Errorf("unexpected static body: %q", w.Body.String())
	}

	w = doJSON(router, "GET", "/missing.html", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown path, got %d", w.Code)
	}

	w = doJSON(router, "GET", "/api/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown api route, got %d", w.Code)
	}
}

func TestAdminRequiresAuth(t *testing.T) {
	router, _, _ := setupTestRouter(t, false)

	w := doJSON(router, "GET", "/api/admin/comments", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without token, got %d", w.Code)
	}

	w = doJSON(router, "POST", "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for bad credentials, got %d", w.Code)
	}
}

func adminLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, "POST", "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "letmein",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin login failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Token == "" {
		t.Fatal("expected a token")
	}
	return resp.Data.Token
}

func TestModerationFlow(t *testing.T) {
	router, _, _ := setupTestRouter(t, false)

	w := doJSON(router, "POST", "/api/comments", map[string]string{
		"post_id": "moderated",
		"author":  "Ada",
		"email":   "ada@example.com",
		"body":    "pending words",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created["approved"] != false {
		t.Errorf("expected approved=false under moderation, got %v", created["approved"])
	}

	w = doJSON(router, "GET", "/api/comments?post_id=moderated", nil, "")
	var list []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 0 {
		t.Fatalf("pending comment must not be publicly visible, got %d", len(list))
	}

	token := adminLogin(t, router)

	w = doJSON(router, "GET", "/api/admin/comments", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var pending struct {
		Data struct {
			Items []map[string]interface{} `json:"items"`
			Total int                      `json:"total"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &pending)
	if pending.Data.Total != 1 {
		t.Fatalf("expected 1 pending comment, got %d", pending.Data.Total)
	}
	if pending.Data.Items[0]["email"] != "ada@example.com" {
		t.Errorf("admin view should include email, got %v", pending.Data.Items[0]["email"])
	}

	id := pending.Data.Items[0]["id"].(string)
	w = doJSON(router, "POST", fmt.Sprintf("/api/admin/comments/%s/approve", id), nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("approve failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "GET", "/api/comments?post_id=moderated", nil, "")
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Fatalf("expected approved comment visible, got %d", len(list))
	}

	w = doJSON(router, "DELETE", "/api/admin/comments/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "GET", "/api/comments?post_id=moderated", nil, "")
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 0 {
		t.Fatalf("expected comment gone after delete, got %d", len(list))
	}

	w = doJSON(router, "DELETE", "/api/admin/comments/"+id, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown id, got %d", w.Code)
	}
}

func TestAdminLogoutRevokesToken(t *testing.T) {
	router, _, _ := setupTestRouter(t, false)
	token := adminLogin(t, router)

	w := doJSON(router, "POST", "/api/admin/logout", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", w.Code)
	}

	w = doJSON(router, "GET", "/api/admin/comments", nil, token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 after logout, got %d", w.Code)
	}
}
