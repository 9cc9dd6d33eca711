package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
	"github.com/diagnosis/pakbooking/pkg/logger"
)

type Auth struct {
	r      Requester
	tokens tokenstore.Store
}

// Register creates an account. It does not sign the user in.
func (a *Auth) Register(ctx context.Context, in domain.Registration) (domain.User, error) {
	var raw []byte
	req := apiclient.Request{Method: http.MethodPost, Path: "/auth/register/", Body: in, SkipAuth: true}
	if err := a.r.Do(ctx, req, &raw); err != nil {
		return domain.User{}, err
	}

	// The backend answers either {"user": {...}, "message": ...} or the user
	// itself.
	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return domain.User{}, &apiclient.DecodeError{Status: http.StatusCreated, Target: "domain.User", Err: err}
	}
	return u, nil
}

// Login exchanges credentials for a token pair and stores it.
func (a *Auth) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	var out domain.LoginResult
	req := apiclient.Request{
		Method:   http.MethodPost,
		Path:     "/auth/login/",
		Body:     domain.Credentials{Email: email, Password: password},
		SkipAuth: true,
	}
	if err := a.r.Do(ctx, req, &out); err != nil {
		return domain.LoginResult{}, err
	}
	if out.Access == "" || out.Refresh == "" {
		return domain.LoginResult{}, &apiclient.DecodeError{
			Status: http.StatusOK,
			Target: "domain.LoginResult",
			Err:    fmt.Errorf("missing tokens"),
		}
	}

	if err := a.tokens.SetPair(ctx, tokenstore.Pair{Access: out.Access, Refresh: out.Refresh}); err != nil {
		return domain.LoginResult{}, fmt.Errorf("store tokens: %w", err)
	}
	return out, nil
}

// Logout tells the backend to blacklist the refresh token, then clears both
// tokens. The server call is best-effort: its failure is logged, never
// returned. Only a failure to clear local tokens is an error.
func (a *Auth) Logout(ctx context.Context) error {
	refresh, ok, err := a.tokens.Get(ctx, tokenstore.RefreshToken)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read refresh token for logout", "error", err)
	}
	if ok {
		if err := post(ctx, a.r, "/auth/logout/", domain.TokenRefreshRequest{Refresh: refresh}, nil); err != nil {
			logger.WarnContext(ctx, "Server-side logout failed", "error", err)
		}
	}

	if err := a.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (a *Auth) CurrentUser(ctx context.Context) (domain.User, error) {
	var u domain.User
	err := get(ctx, a.r, "/auth/user/", nil, &u)
	return u, err
}

func (a *Auth) UpdateProfile(ctx context.Context, p domain.ProfilePatch) (domain.User, error) {
	var u domain.User
	err := patch(ctx, a.r, "/auth/user/", p, &u)
	return u, err
}

func (a *Auth) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return post(ctx, a.r, "/auth/change-password/", domain.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword}, nil)
}

// HasTokens reports whether an access token is stored.
func (a *Auth) HasTokens(ctx context.Context) (bool, error) {
	_, ok, err := a.tokens.Get(ctx, tokenstore.AccessToken)
	return ok, err
}

// ClearTokens drops both tokens without contacting the backend.
func (a *Auth) ClearTokens(ctx context.Context) error {
	return a.tokens.Clear(ctx)
}

// AccessToken returns the stored access token, or "".
func (a *Auth) AccessToken(ctx context.Context) string {
	v, _, _ := a.tokens.Get(ctx, tokenstore.AccessToken)
	return v
}
