package apiclient

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-food-storefront/internal/auth"
)

type User struct {
	ID      auth.UserID `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone,omitempty"`
	Address string      `json:"address,omitempty"`
	Avatar  string      `json:"avatar,omitempty"`
	Role    string      `json:"role,omitempty"`
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthService struct{ c *Client }

func (c *Client) Auth() *AuthService { return &AuthService{c: c} }

func (s *AuthService) Login(ctx context.Context, cred Credentials) Result[Session] {
	return s.startSession(ctx, "/auth/login", cred)
}

func (s *AuthService) Register(ctx context.Context, reg Registration) Result[Session] {
	return s.startSession(ctx, "/auth/register", reg)
}

// GoogleLogin exchanges a Google ID token credential for an API session.
func (s *AuthService) GoogleLogin(ctx context.Context, credential string) Result[Session] {
	return s.startSession(ctx, "/auth/google", map[string]string{"credential": credential})
}

func (s *AuthService) startSession(ctx context.Context, path string, in any) Result[Session] {
	var sess Session
	if err := s.c.do(ctx, http.MethodPost, path, in, &sess); err != nil {
		return fail[Session](err)
	}
	if sess.Token == "" {
		return failMsg[Session]("malformed response: missing token")
	}
	if err := s.c.tokens.Set(ctx, sess.Token); err != nil {
		return fail[Session](err)
	}
	return ok(sess)
}

// Logout drops the local credential even when the API call fails.
func (s *AuthService) Logout(ctx context.Context) Result[struct{}] {
	err := s.c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if rmErr := s.c.tokens.Remove(ctx); rmErr != nil {
		s.c.log.WithField("error", rmErr).Warn("could not drop token on logout")
	}
	if err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}

func (s *AuthService) Me(ctx context.Context) Result[User] {
	return s.user(ctx, http.MethodGet, "/auth/me", nil)
}

func (s *AuthService) UpdateProfile(ctx context.Context, p ProfileUpdate) Result[User] {
	return s.user(ctx, http.MethodPut, "/auth/profile", p)
}

func (s *AuthService) ChangePassword(ctx context.Context, p PasswordChange) Result[struct{}] {
	if p.CurrentPassword == "" || p.NewPassword == "" {
		return failMsg[struct{}]("current and new password are required")
	}
	if err := s.c.do(ctx, http.MethodPut, "/auth/change-password", p, nil); err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}

func (s *AuthService) user(ctx context.Context, method, path string, in any) Result[User] {
	var u struct {
		User
		Nested *User `json:"user"`
	}
	if err := s.c.do(ctx, method, path, in, &u); err != nil {
		return fail[User](err)
	}
	got := u.User
	if u.Nested != nil {
		got = *u.Nested
	}
	if got.ID == "" && got.Email == "" {
		return failMsg[User]("malformed response: missing user")
	}
	return ok(got)
}
