package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/calcman/internal/auth"
	"github.com/hitoshi/calcman/internal/middleware"
	"github.com/hitoshi/calcman/internal/model"
)

// --- テストヘルパー ---

// withUserID はリクエストコンテキストにユーザーIDを注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn     func(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	authenticateFn func(ctx context.Context, usernameOrEmail, password string) (*auth.AuthResult, error)
	refreshFn      func(ctx context.Context, refreshToken string) (*auth.AuthResult, error)
	currentUserFn  func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, usernameOrEmail, password string) (*auth.AuthResult, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, usernameOrEmail, password)
	}
	return nil, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, nil
}

func testUser() *model.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.User{
		ID:        "user-123",
		Username:  "hitoshi",
		Email:     "hitoshi@example.com",
		FirstName: "Hitoshi",
		LastName:  "Ichikawa",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testAuthResult() *auth.AuthResult {
	return &auth.AuthResult{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "bearer",
		ExpiresAt:    time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		User:         testUser(),
	}
}

// --- POST /auth/register テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			if input.Username != "hitoshi" {
				t.Errorf("Username = %q, want %q", input.Username, "hitoshi")
			}
			if input.Password != "secret123" {
				t.Errorf("Password = %q, want %q", input.Password, "secret123")
			}
			return testUser(), nil
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"username":"hitoshi","email":"hitoshi@example.com","first_name":"Hitoshi","last_name":"Ichikawa","password":"secret123","confirm_password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Username != "hitoshi" {
		t.Errorf("Username = %q, want %q", resp.Username, "hitoshi")
	}

	// パスワードハッシュがレスポンスに漏れていないこと
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("response must not contain password fields: %s", w.Body.String())
	}
}

func TestAuthHandler_Register_PasswordMismatch(t *testing.T) {
	registerCalled := false
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			registerCalled = true
			return testUser(), nil
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"username":"hitoshi","email":"hitoshi@example.com","password":"secret123","confirm_password":"different"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if registerCalled {
		t.Error("service must not be called on password mismatch")
	}

	var errResp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Code != model.ErrCodePasswordMismatch {
		t.Errorf("code = %q, want %q", errResp.Code, model.ErrCodePasswordMismatch)
	}
}

func TestAuthHandler_Register_WeakPassword(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			return nil, model.NewWeakPasswordError(6)
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"username":"hitoshi","email":"hitoshi@example.com","password":"ab","confirm_password":"ab"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_DuplicateUser(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			return nil, model.NewDuplicateUserError()
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"username":"hitoshi","email":"hitoshi@example.com","password":"secret123","confirm_password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_MissingRequiredFields(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	body := `{"username":"","email":"","password":"secret123","confirm_password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- POST /auth/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, usernameOrEmail, password string) (*auth.AuthResult, error) {
			if usernameOrEmail != "hitoshi" {
				t.Errorf("usernameOrEmail = %q, want %q", usernameOrEmail, "hitoshi")
			}
			return testAuthResult(), nil
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"username":"hitoshi","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "access-token" {
		t.Errorf("AccessToken = %q, want %q", resp.AccessToken, "access-token")
	}
	if resp.RefreshToken != "refresh-token" {
		t.Errorf("RefreshToken = %q, want %q", resp.RefreshToken, "refresh-token")
	}
	if resp.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want %q", resp.TokenType, "bearer")
	}
	if resp.User.ID != "user-123" {
		t.Errorf("User.ID = %q, want %q", resp.User.ID, "user-123")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, usernameOrEmail, password string) (*auth.AuthResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"username":"hitoshi","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var errResp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", errResp.Code, model.ErrCodeInvalidCredentials)
	}
}

// --- POST /auth/refresh テスト ---

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
			if refreshToken != "old-refresh-token" {
				t.Errorf("refreshToken = %q, want %q", refreshToken, "old-refresh-token")
			}
			return testAuthResult(), nil
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"refresh_token":"old-refresh-token"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.RefreshToken(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected a new token pair")
	}
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
			return nil, model.NewUnauthorizedError()
		},
	}

	h := NewAuthHandler(svc, nil)

	body := `{"refresh_token":"expired-or-garbage"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.RefreshToken(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- GET /auth/me テスト ---

func TestAuthHandler_Me_Success(t *testing.T) {
	svc := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID string) (*model.User, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return testUser(), nil
		},
	}

	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "hitoshi@example.com" {
		t.Errorf("Email = %q, want %q", resp.Email, "hitoshi@example.com")
	}
}

func TestAuthHandler_Me_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
