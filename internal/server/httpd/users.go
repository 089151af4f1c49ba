package httpd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yndnr/rawhttpd/internal/core/domain"
	"github.com/yndnr/rawhttpd/internal/core/route"
	"github.com/yndnr/rawhttpd/internal/core/service"
	"github.com/yndnr/rawhttpd/internal/protocol/http1"
)

// UserService is the account logic behind the user API.
type UserService interface {
	Register(ctx context.Context, req *service.RegisterRequest) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, req *service.ChangePasswordRequest) (*domain.User, error)
	ChangeEmail(ctx context.Context, req *service.ChangeEmailRequest) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// UserHandler implements the /users API.
type UserHandler struct {
	users    UserService
	sessions *SessionStore
}

// NewUserHandler creates the user API handlers.
func NewUserHandler(users UserService, sessions *SessionStore) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// Bind registers every user API route on d.
func (h *UserHandler) Bind(d *Dispatcher) {
	d.Route(route.Register, HandlerFunc(h.register))
	d.Route(route.Login, HandlerFunc(h.login))
	d.Route(route.Logout, HandlerFunc(h.logout))
	d.Route(route.List, HandlerFunc(h.list))
	d.Route(route.ChangePassword, HandlerFunc(h.changePassword))
	d.Route(route.ChangeEmail, HandlerFunc(h.changeEmail))
}

// ============================================================================
// Request Bodies
// ============================================================================

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordBody struct {
	ID              json.Number `json:"id"`
	CurrentPassword string      `json:"currentPassword"`
	NewPassword     string      `json:"newPassword"`
}

type changeEmailBody struct {
	ID       json.Number `json:"id"`
	NewEmail string      `json:"newEmail"`
	Password string      `json:"password"`
}

type messageBody struct {
	Message string `json:"message"`
}

// field is a named request value checked by requireFields.
type field struct {
	name  string
	value string
}

func decodeBody(req *http1.Request, dst any) error {
	if len(req.Body) == 0 {
		return domain.ErrInvalidInput.WithDetails("request body is required")
	}
	if err := json.Unmarshal(req.Body, dst); err != nil {
		return domain.ErrInvalidInput.WithDetails("malformed JSON body")
	}
	return nil
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.ErrInvalidInput.WithDetails("missing required field: " + f.name)
		}
	}
	return nil
}

// ============================================================================
// Handlers
// ============================================================================

func (h *UserHandler) register(ctx context.Context, req *http1.Request, _ Session) (*http1.Response, error) {
	var body registerBody
	if err := decodeBody(req, &body); err != nil {
		return domainErrorResponse(err), nil
	}
	if err := requireFields(
		field{"username", body.Username},
		field{"email", body.Email},
		field{"password", body.Password},
	); err != nil {
		return domainErrorResponse(err), nil
	}

	user, err := h.users.Register(ctx, &service.RegisterRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return domainErrorResponse(err), nil
	}
	return h.withNewSession(http1.StatusCreated, user)
}

func (h *UserHandler) login(ctx context.Context, req *http1.Request, _ Session) (*http1.Response, error) {
	var body loginBody
	if err := decodeBody(req, &body); err != nil {
		return domainErrorResponse(err), nil
	}
	if err := requireFields(
		field{"username", body.Username},
		field{"password", body.Password},
	); err != nil {
		return domainErrorResponse(err), nil
	}

	user, err := h.users.Authenticate(ctx, body.Username, body.Password)
	if err != nil {
		return domainErrorResponse(err), nil
	}
	return h.withNewSession(http1.StatusOK, user)
}

func (h *UserHandler) logout(_ context.Context, _ *http1.Request, sess Session) (*http1.Response, error) {
	if sess.Active {
		h.sessions.InvalidateAll(sess.Subject)
	}
	return http1.NewResponse().
		JSON(messageBody{Message: "Logged out successfully"}).
		Build(), nil
}

func (h *UserHandler) list(ctx context.Context, _ *http1.Request, _ Session) (*http1.Response, error) {
	users, err := h.users.List(ctx)
	if err != nil {
		return domainErrorResponse(err), nil
	}
	return http1.NewResponse().JSON(users).Build(), nil
}

func (h *UserHandler) changePassword(ctx context.Context, req *http1.Request, sess Session) (*http1.Response, error) {
	var body changePasswordBody
	if err := decodeBody(req, &body); err != nil {
		return domainErrorResponse(err), nil
	}
	if err := requireFields(
		field{"currentPassword", body.CurrentPassword},
		field{"newPassword", body.NewPassword},
	); err != nil {
		return domainErrorResponse(err), nil
	}
	id, err := subjectID(req.Path, body.ID, sess)
	if err != nil {
		return domainErrorResponse(err), nil
	}

	user, err := h.users.ChangePassword(ctx, &service.ChangePasswordRequest{
		ID:              id,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		return domainErrorResponse(err), nil
	}
	h.sessions.InvalidateAll(user.ID)
	return h.withNewSession(http1.StatusOK, user)
}

func (h *UserHandler) changeEmail(ctx context.Context, req *http1.Request, sess Session) (*http1.Response, error) {
	var body changeEmailBody
	if err := decodeBody(req, &body); err != nil {
		return domainErrorResponse(err), nil
	}
	if err := requireFields(
		field{"newEmail", body.NewEmail},
		field{"password", body.Password},
	); err != nil {
		return domainErrorResponse(err), nil
	}
	id, err := subjectID(req.Path, body.ID, sess)
	if err != nil {
		return domainErrorResponse(err), nil
	}

	user, err := h.users.ChangeEmail(ctx, &service.ChangeEmailRequest{
		ID:       id,
		NewEmail: body.NewEmail,
		Password: body.Password,
	})
	if err != nil {
		return domainErrorResponse(err), nil
	}
	h.sessions.InvalidateAll(user.ID)
	return h.withNewSession(http1.StatusOK, user)
}

// subjectID returns the user a credential change applies to: the body id,
// or the path id when the body has none. A body id must agree with a
// numeric path id, and the result must equal the session subject.
func subjectID(path string, bodyID json.Number, sess Session) (domain.UserID, error) {
	raw := bodyID.String()
	fromPath := pathID(path)
	if raw == "" {
		raw = fromPath
	}
	if raw == "" {
		return 0, domain.ErrInvalidInput.WithDetails("missing required field: id")
	}
	id, err := domain.ParseUserID(raw)
	if err != nil {
		return 0, err
	}
	if pid, perr := domain.ParseUserID(fromPath); perr == nil && pid != id {
		return 0, domain.ErrInvalidInput.WithDetails("id does not match path")
	}
	if id != sess.Subject {
		return 0, domain.ErrSessionUserMismatch
	}
	return id, nil
}

// pathID returns the {id} segment of /users/{id}/...
func pathID(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 {
		return ""
	}
	return segments[1]
}

// withNewSession issues a session for user and renders it with a
// Set-Cookie header.
func (h *UserHandler) withNewSession(status int, user *domain.User) (*http1.Response, error) {
	token, err := h.sessions.Create(user.ID)
	if err != nil {
		return nil, err
	}
	return http1.NewResponse().
		Status(status).
		Header(http1.HeaderSetCookie, sessionCookie(token, h.sessions.TTL())).
		JSON(user).
		Build(), nil
}
