package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sofrim/sofrim-server/internal/auth"
	"github.com/sofrim/sofrim-server/internal/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	database := testutil.SetupTestDB(t)
	handler := &AuthHandler{DB: database}

	// 1. Register a new user
	req := jsonRequest("POST", "/auth/register", map[string]string{
		"email":    "sofer@example.com",
		"name":     "סופר",
		"password": "securepassword",
	}, nil)
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if status := rr.Code; status != http.StatusCreated {
		t.Fatalf("Register failed, got status %v body: %s", status, rr.Body.String())
	}
	var resp AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("Expected token in register response")
	}
	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("Issued token did not validate: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Error("Token subject does not match created user")
	}

	// 2. Duplicate registration by name is rejected
	req = jsonRequest("POST", "/auth/register", map[string]string{
		"email":    "other@example.com",
		"name":     "סופר",
		"password": "securepassword",
	}, nil)
	rr = httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("Duplicate register should be 409, got %v", rr.Code)
	}

	// 3. Short password is rejected
	req = jsonRequest("POST", "/auth/register", map[string]string{
		"email":    "short@example.com",
		"name":     "short",
		"password": "abc",
	}, nil)
	rr = httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Short password should be 400, got %v", rr.Code)
	}

	// 4. Login by email
	req = jsonRequest("POST", "/auth", map[string]string{
		"identifier": "sofer@example.com",
		"password":   "securepassword",
	}, nil)
	rr = httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Login by email failed, got %v body: %s", rr.Code, rr.Body.String())
	}

	// 5. Login by name
	req = jsonRequest("POST", "/auth", map[string]string{
		"identifier": "סופר",
		"password":   "securepassword",
	}, nil)
	rr = httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Login by name failed, got %v", rr.Code)
	}

	// 6. Wrong password
	req = jsonRequest("POST", "/auth", map[string]string{
		"identifier": "sofer@example.com",
		"password":   "wrongpassword",
	}, nil)
	rr = httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Wrong password should be 401, got %v", rr.Code)
	}

	// 7. Unknown user gets the same 401, not a 404
	req = jsonRequest("POST", "/auth", map[string]string{
		"identifier": "nobody",
		"password":   "whatever",
	}, nil)
	rr = httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Unknown user should be 401, got %v", rr.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	database := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, database, "middle", "user")
	mw := &Middleware{DB: database}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r)
		if !ok || sess.UserID != user.ID {
			t.Error("Expected session in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	// Valid token
	token, err := auth.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw.Auth(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Valid token should pass, got %v", rr.Code)
	}

	// Missing header
	req = httptest.NewRequest("GET", "/me", nil)
	rr = httptest.NewRecorder()
	mw.Auth(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Missing header should be 401, got %v", rr.Code)
	}

	// Token for a deleted user
	if err := database.DeleteUser(user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	mw.Auth(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Token for deleted user should be 401, got %v", rr.Code)
	}
}

func TestAdminMiddleware(t *testing.T) {
	database := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, database, "plain", "user")
	mw := &Middleware{DB: database}

	token, _ := auth.GenerateToken(user.ID, user.Name, user.Role)
	req := httptest.NewRequest("GET", "/admin/pages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw.Admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Non-admin must not reach the handler")
	})).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Non-admin should be 403, got %v", rr.Code)
	}
}
