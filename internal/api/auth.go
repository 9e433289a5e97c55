package api

import (
	"context"
	"net/http"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

// Auth covers login, registration and password reset. Calls made before a
// session exists skip refresh: a 401 there means bad input.
type Auth struct {
	d Doer
}

func (a *Auth) unauthenticated(method, path string, body any) *client.Request {
	return &client.Request{Method: method, Path: path, Body: body, SkipRefresh: true}
}

func (a *Auth) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	return call[models.LoginResponse](ctx, a.d, a.unauthenticated(http.MethodPost, AuthLogin, req))
}

func (a *Auth) Register(ctx context.Context, req models.EnrollRequest) (models.MessageResponse, error) {
	return call[models.MessageResponse](ctx, a.d, a.unauthenticated(http.MethodPost, AuthRegister, req))
}

func (a *Auth) Profile(ctx context.Context) (models.UserProfile, error) {
	return get[models.UserProfile](ctx, a.d, AuthProfile, nil)
}

func (a *Auth) Logout(ctx context.Context) error {
	_, err := a.d.Do(ctx, a.unauthenticated(http.MethodPost, AuthLogout, nil))
	return err
}

func (a *Auth) RequestPasswordReset(ctx context.Context, email string) (models.MessageResponse, error) {
	return call[models.MessageResponse](ctx, a.d,
		a.unauthenticated(http.MethodPost, AuthForgotPassword, models.ForgotPasswordRequest{Email: email}))
}

func (a *Auth) VerifyResetCode(ctx context.Context, code string) (models.MessageResponse, error) {
	return call[models.MessageResponse](ctx, a.d,
		a.unauthenticated(http.MethodPost, AuthVerifyCode, models.VerifyCodeRequest{Code: code}))
}

func (a *Auth) SubmitNewPassword(ctx context.Context, password string) (models.MessageResponse, error) {
	return call[models.MessageResponse](ctx, a.d,
		a.unauthenticated(http.MethodPost, AuthSubmitReset, models.SubmitPasswordRequest{NewPassword: password}))
}
