package httpd

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/yndnr/rawhttpd/internal/core/domain"
	"github.com/yndnr/rawhttpd/internal/core/service"
	"github.com/yndnr/rawhttpd/internal/protocol/http1"
)

// ============================================================
// Mock User Service
// ============================================================

type mockUserService struct {
	users map[domain.UserID]*domain.User
	err   error // returned by every call when set

	lastPassword *service.ChangePasswordRequest
	lastEmail    *service.ChangeEmailRequest
}

func newMockUserService() *mockUserService {
	return &mockUserService{users: map[domain.UserID]*domain.User{
		1: {ID: 1, Username: "alice", Email: "alice@example.com"},
		2: {ID: 2, Username: "bob", Email: "bob@example.com"},
	}}
}

func (m *mockUserService) Register(_ context.Context, req *service.RegisterRequest) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u := &domain.User{ID: domain.UserID(len(m.users) + 1), Username: req.Username, Email: req.Email}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserService) Authenticate(_ context.Context, username, password string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username && password == "Secret#123" {
			return u, nil
		}
	}
	return nil, domain.ErrAuthenticationFailed
}

func (m *mockUserService) ChangePassword(_ context.Context, req *service.ChangePasswordRequest) (*domain.User, error) {
	m.lastPassword = req
	if m.err != nil {
		return nil, m.err
	}
	return m.users[req.ID], nil
}

func (m *mockUserService) ChangeEmail(_ context.Context, req *service.ChangeEmailRequest) (*domain.User, error) {
	m.lastEmail = req
	if m.err != nil {
		return nil, m.err
	}
	u := m.users[req.ID]
	u.Email = req.NewEmail
	return u, nil
}

func (m *mockUserService) List(context.Context) ([]*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.User{m.users[1], m.users[2]}, nil
}

// ============================================================
// Helpers
// ============================================================

type userFixture struct {
	svc   *mockUserService
	store *SessionStore
	d     *Dispatcher
}

func newUserFixture() *userFixture {
	svc := newMockUserService()
	store := newTestStore()
	d := newTestDispatcher(store)
	NewUserHandler(svc, store).Bind(d)
	return &userFixture{svc: svc, store: store, d: d}
}

func request(method, path, cookie, body string) string {
	var sb strings.Builder
	sb.WriteString(method + " " + path + " HTTP/1.1\r\nHost: localhost\r\n")
	if cookie != "" {
		sb.WriteString("Cookie: sessionId=" + cookie + "\r\n")
	}
	if body != "" {
		sb.WriteString("Content-Type: application/json\r\n")
		sb.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return sb.String()
}

// cookieToken returns the token from a Set-Cookie header.
func cookieToken(t *testing.T, resp *http1.Response) string {
	t.Helper()
	v, ok := resp.Header(http1.HeaderSetCookie)
	if !ok {
		t.Fatalf("no Set-Cookie header in %v", resp.Headers)
	}
	tok, ok := strings.CutPrefix(v, "sessionId=")
	if !ok {
		t.Fatalf("Set-Cookie = %q", v)
	}
	tok, rest, _ := strings.Cut(tok, ";")
	if rest != " Path=/; Max-Age=3600" {
		t.Errorf("cookie attributes = %q", rest)
	}
	return tok
}

// ============================================================
// Register / Login / Logout
// ============================================================

func TestUsers_Register(t *testing.T) {
	f := newUserFixture()
	resp := dispatch(t, f.d, request("POST", "/users", "",
		`{"username":"carol","email":"carol@example.com","password":"Secret#123"}`))

	if resp.StatusCode != 201 {
		t.Fatalf("status = %d, body %s", resp.StatusCode, resp.Body)
	}
	tok := cookieToken(t, resp)
	if s, ok := f.store.Lookup(tok); !ok || s.Subject != 3 {
		t.Errorf("session = %+v, %v", s, ok)
	}

	var u domain.User
	if err := json.Unmarshal(resp.Body, &u); err != nil {
		t.Fatal(err)
	}
	if u.Username != "carol" || u.ID != 3 {
		t.Errorf("user = %+v", u)
	}
	if strings.Contains(resp.BodyString(), "password") {
		t.Errorf("body leaks password: %s", resp.Body)
	}
}

func TestUsers_RegisterInvalidBody(t *testing.T) {
	f := newUserFixture()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no body", "", "request body is required"},
		{"malformed", `{"username":`, "malformed JSON body"},
		{"missing email", `{"username":"carol","password":"x"}`, "missing required field: email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := dispatch(t, f.d, request("POST", "/users", "", tt.body))
			if resp.StatusCode != 400 {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			body := decodeError(t, resp)
			if body.Error != "invalid_input" || !strings.Contains(body.Message, tt.want) {
				t.Errorf("body = %+v", body)
			}
			if _, ok := resp.Header(http1.HeaderSetCookie); ok {
				t.Error("failed registration must not set a cookie")
			}
		})
	}
}

func TestUsers_RegisterConflict(t *testing.T) {
	f := newUserFixture()
	f.svc.err = domain.ErrUserAlreadyExists

	resp := dispatch(t, f.d, request("POST", "/users", "",
		`{"username":"alice","email":"a@example.com","password":"Secret#123"}`))
	if resp.StatusCode != 409 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Error != "user_already_exists" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestUsers_Login(t *testing.T) {
	f := newUserFixture()

	resp := dispatch(t, f.d, request("POST", "/users/login", "", `{"username":"alice","password":"Secret#123"}`))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body %s", resp.StatusCode, resp.Body)
	}
	tok := cookieToken(t, resp)
	if len(tok) < 36 {
		t.Errorf("token %q shorter than 36 chars", tok)
	}

	resp = dispatch(t, f.d, request("POST", "/users/login", "", `{"username":"alice","password":"wrong"}`))
	if resp.StatusCode != 401 {
		t.Fatalf("wrong password status = %d", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Error != "authentication_failed" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestUsers_Logout(t *testing.T) {
	f := newUserFixture()
	a, _ := f.store.Create(1)
	b, _ := f.store.Create(1)
	other, _ := f.store.Create(2)

	resp := dispatch(t, f.d, request("POST", "/users/logout", a, ""))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.BodyString() != `{"message":"Logged out successfully"}` {
		t.Errorf("body = %s", resp.Body)
	}
	if _, ok := f.store.Lookup(b); ok {
		t.Error("every session of the user should be gone")
	}
	if _, ok := f.store.Lookup(other); !ok {
		t.Error("other user's session should survive")
	}

	// Logout without a session still succeeds.
	if resp := dispatch(t, f.d, request("POST", "/users/logout", "", "")); resp.StatusCode != 200 {
		t.Errorf("anonymous logout status = %d", resp.StatusCode)
	}
}

func TestUsers_List(t *testing.T) {
	f := newUserFixture()
	tok, _ := f.store.Create(1)

	resp := dispatch(t, f.d, request("GET", "/users/", tok, ""))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var users []domain.User
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].Username != "alice" {
		t.Errorf("users = %+v", users)
	}

	f.svc.err = domain.ErrDatabase
	resp = dispatch(t, f.d, request("GET", "/users", tok, ""))
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Error != "database_error" {
		t.Errorf("error = %q", body.Error)
	}
}

// ============================================================
// Credential Changes
// ============================================================

func TestUsers_ChangePassword(t *testing.T) {
	f := newUserFixture()
	old, _ := f.store.Create(1)

	resp := dispatch(t, f.d, request("PATCH", "/users/1/password", old,
		`{"id":1,"currentPassword":"Secret#123","newPassword":"Newer#1234"}`))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body %s", resp.StatusCode, resp.Body)
	}
	if f.svc.lastPassword.ID != 1 || f.svc.lastPassword.NewPassword != "Newer#1234" {
		t.Errorf("request = %+v", f.svc.lastPassword)
	}

	fresh := cookieToken(t, resp)
	if _, ok := f.store.Lookup(old); ok {
		t.Error("old session should be invalidated")
	}
	if s, ok := f.store.Lookup(fresh); !ok || s.Subject != 1 {
		t.Error("new session should be active for the user")
	}
}

func TestUsers_ChangePasswordErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		svcErr error
		status int
		code   string
	}{
		{"other user", "/users/2/password", `{"id":2,"currentPassword":"a","newPassword":"b"}`, nil, 403, "session_user_mismatch"},
		{"string id", "/users/1/password", `{"id":"1","currentPassword":"a","newPassword":"b"}`, nil, 200, ""},
		{"path id fallback", "/users/1/password", `{"currentPassword":"a","newPassword":"b"}`, nil, 200, ""},
		{"body id differs from path", "/users/99/password", `{"id":1,"currentPassword":"a","newPassword":"b"}`, nil, 400, "invalid_input"},
		{"bad id", "/users/x/password", `{"currentPassword":"a","newPassword":"b"}`, nil, 400, "invalid_input"},
		{"missing new password", "/users/1/password", `{"id":1,"currentPassword":"a"}`, nil, 400, "invalid_input"},
		{"wrong current", "/users/1/password", `{"id":1,"currentPassword":"a","newPassword":"b"}`, domain.ErrAuthenticationFailed, 401, "authentication_failed"},
		{"weak new", "/users/1/password", `{"id":1,"currentPassword":"a","newPassword":"b"}`, domain.ErrInvalidInput.WithDetails("weak"), 400, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			f.svc.err = tt.svcErr
			tok, _ := f.store.Create(1)

			resp := dispatch(t, f.d, request("PATCH", tt.path, tok, tt.body))
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, resp.Body)
			}
			if tt.code == "" {
				return
			}
			if body := decodeError(t, resp); body.Error != tt.code {
				t.Errorf("error = %q, want %q", body.Error, tt.code)
			}
			if _, ok := f.store.Lookup(tok); !ok {
				t.Error("failed change must keep the session")
			}
		})
	}
}

func TestUsers_ChangeEmail(t *testing.T) {
	f := newUserFixture()
	tok, _ := f.store.Create(1)

	resp := dispatch(t, f.d, request("PATCH", "/users/1/email", tok,
		`{"id":1,"newEmail":"alice@new.example.com","password":"Secret#123"}`))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body %s", resp.StatusCode, resp.Body)
	}
	var u domain.User
	if err := json.Unmarshal(resp.Body, &u); err != nil {
		t.Fatal(err)
	}
	if u.Email != "alice@new.example.com" {
		t.Errorf("email = %q", u.Email)
	}
	if cookieToken(t, resp) == tok {
		t.Error("credential change should issue a new token")
	}

	f.svc.err = domain.ErrEmailAlreadyExists
	tok, _ = f.store.Create(1)
	resp = dispatch(t, f.d, request("PATCH", "/users/1/email", tok,
		`{"id":1,"newEmail":"bob@example.com","password":"Secret#123"}`))
	if resp.StatusCode != 409 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUsers_CredentialChangeRequiresSession(t *testing.T) {
	f := newUserFixture()
	resp := dispatch(t, f.d, request("PATCH", "/users/1/email", "",
		`{"id":1,"newEmail":"x@example.com","password":"Secret#123"}`))

	if resp.StatusCode != 401 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if f.svc.lastEmail != nil {
		t.Error("service must not be called without a session")
	}
}
