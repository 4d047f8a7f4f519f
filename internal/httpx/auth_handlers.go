package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

// The credential stays server-side; views only ever see the user.

func (h *Storefront) login(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var cred apiclient.Credentials
	if err := decode(r, &cred); err != nil {
		return badRequest(err)
	}
	return userOf(s.API.Auth().Login(ctx, cred))
}

func (h *Storefront) register(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var reg apiclient.Registration
	if err := decode(r, &reg); err != nil {
		return badRequest(err)
	}
	res := s.API.Auth().Register(ctx, reg)
	if res.Success {
		return http.StatusCreated, res.Data.User
	}
	return userOf(res)
}

func (h *Storefront) googleLogin(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var body struct {
		Credential string `json:"credential"`
	}
	if err := decode(r, &body); err != nil {
		return badRequest(err)
	}
	if body.Credential == "" {
		return http.StatusBadRequest, errorBody{Error: "credential is required"}
	}
	return userOf(s.API.Auth().GoogleLogin(ctx, body.Credential))
}

func (h *Storefront) logout(ctx context.Context, s *session.Session, _ *http.Request) (int, any) {
	res := s.API.Auth().Logout(ctx)
	s.Wizard.Reset()
	if !res.Success {
		// the local credential is gone regardless
		return failure(res.Status, res.Error)
	}
	return http.StatusNoContent, nil
}

func (h *Storefront) me(ctx context.Context, s *session.Session, _ *http.Request) (int, any) {
	return fromResult(s.API.Auth().Me(ctx), http.StatusOK)
}

func (h *Storefront) updateProfile(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var p apiclient.ProfileUpdate
	if err := decode(r, &p); err != nil {
		return badRequest(err)
	}
	return fromResult(s.API.Auth().UpdateProfile(ctx, p), http.StatusOK)
}

func (h *Storefront) changePassword(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	var p apiclient.PasswordChange
	if err := decode(r, &p); err != nil {
		return badRequest(err)
	}
	if p.CurrentPassword == "" || p.NewPassword == "" {
		return http.StatusBadRequest, errorBody{Error: "current and new password are required"}
	}
	res := s.API.Auth().ChangePassword(ctx, p)
	if !res.Success {
		return failure(res.Status, res.Error)
	}
	return http.StatusNoContent, nil
}

func userOf(res apiclient.Result[apiclient.Session]) (int, any) {
	if !res.Success {
		return failure(res.Status, res.Error)
	}
	return http.StatusOK, res.Data.User
}
