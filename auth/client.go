package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/errors"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/validation"
)

// TokenHolder receives the session token after sign-in. *apiclient.Client
// satisfies it.
type TokenHolder interface {
	SetAuthToken(token string)
	ClearAuthToken()
}

// AuthAPI is the client surface the auth Client needs.
type AuthAPI interface {
	apiclient.Requester
	TokenHolder
}

var _ AuthAPI = (*apiclient.Client)(nil)

// platformUser is the user object returned by the auth API.
type platformUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

func (u platformUser) info() *UserInfo {
	info := &UserInfo{ID: u.ID, Email: u.Email, Role: RoleUser, Status: StatusActive}
	if r, ok := u.AppMetadata["role"].(string); ok && Role(r).Valid() {
		info.Role = Role(r)
	} else if r, ok := u.UserMetadata["role"].(string); ok && Role(r).Valid() {
		info.Role = Role(r)
	}
	info.FirstName, _ = u.UserMetadata["first_name"].(string)
	info.LastName, _ = u.UserMetadata["last_name"].(string)
	return info
}

type sessionPayload struct {
	Session
	User *platformUser `json:"user"`
}

// Client talks to the platform auth API and propagates the session token to
// every registered holder.
type Client struct {
	api     AuthAPI
	holders []TokenHolder
	log     *logger.Logger
}

// NewClient creates an auth client. holders receive the access token on
// sign-in and lose it on sign-out; api itself is always one of them.
func NewClient(api AuthAPI, log *logger.Logger, holders ...TokenHolder) *Client {
	c := &Client{api: api, holders: append([]TokenHolder{api}, holders...)}
	if log != nil {
		c.log = log.WithComponent("auth")
	} else {
		c.log = logger.Component("auth")
	}
	return c
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, form validation.RegisterForm) (*UserInfo, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}
	body := map[string]any{
		"email":    form.Email,
		"password": form.Password,
		"data": map[string]any{
			"first_name": form.FirstName,
			"last_name":  form.LastName,
			"role":       RoleUser,
		},
	}
	env := apiclient.Post[platformUser](ctx, c.api, "/signup", body)
	if !env.Success {
		return nil, failure(env)
	}
	info := env.Value().info()
	c.log.Info("account registered", logger.Fields(logger.FieldUserID, info.ID))
	return info, nil
}

// SignIn exchanges credentials for a session and installs its token.
func (c *Client) SignIn(ctx context.Context, form validation.LoginForm) (*Session, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}
	env := apiclient.Post[sessionPayload](ctx, c.api, "/token?grant_type=password",
		map[string]string{"email": form.Email, "password": form.Password})
	if !env.Success {
		if err := translate(env.Error); err != nil {
			return nil, err
		}
		if env.Code == http.StatusBadRequest {
			return nil, errors.Unauthorized("invalid email or password")
		}
		return nil, env.Err()
	}
	return c.install(env.Value()), nil
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errors.MissingField("refresh_token")
	}
	env := apiclient.Post[sessionPayload](ctx, c.api, "/token?grant_type=refresh_token",
		map[string]string{"refresh_token": refreshToken})
	if !env.Success {
		return nil, failure(env)
	}
	return c.install(env.Value()), nil
}

// Resume installs a stored access token if it has not expired.
func (c *Client) Resume(token string) error {
	if !IsAuthenticated(token) {
		return errors.TokenExpired()
	}
	c.setToken(token)
	return nil
}

// SignOut revokes the session and clears the token everywhere. The token is
// cleared even when the revoke call fails.
func (c *Client) SignOut(ctx context.Context) error {
	env := apiclient.Post[json.RawMessage](ctx, c.api, "/logout", nil)
	for _, h := range c.holders {
		h.ClearAuthToken()
	}
	if !env.Success {
		return env.Err()
	}
	c.log.Info("signed out")
	return nil
}

// User returns the account behind the current token.
func (c *Client) User(ctx context.Context) (*UserInfo, error) {
	env := apiclient.Get[platformUser](ctx, c.api, "/user")
	if !env.Success {
		return nil, env.Err()
	}
	return env.Value().info(), nil
}

// RecoverPassword sends a password reset email.
func (c *Client) RecoverPassword(ctx context.Context, form validation.ForgotPasswordForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	env := apiclient.Post[json.RawMessage](ctx, c.api, "/recover", map[string]string{"email": form.Email})
	return env.Err()
}

// UpdatePassword sets a new password for the signed-in account.
func (c *Client) UpdatePassword(ctx context.Context, form validation.ResetPasswordForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	env := apiclient.Put[platformUser](ctx, c.api, "/user", map[string]string{"password": form.Password})
	if !env.Success {
		return failure(env)
	}
	return nil
}

// ChangePassword re-authenticates with the current password before setting
// the new one.
func (c *Client) ChangePassword(ctx context.Context, email string, form validation.ChangePasswordForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	if _, err := c.SignIn(ctx, validation.LoginForm{Email: email, Password: form.CurrentPassword}); err != nil {
		return err
	}
	return c.UpdatePassword(ctx, validation.ResetPasswordForm{
		Password:        form.NewPassword,
		ConfirmPassword: form.ConfirmPassword,
	})
}

func (c *Client) install(p sessionPayload) *Session {
	s := p.Session
	if p.User != nil {
		s.User = p.User.info()
	}
	c.setToken(s.AccessToken)
	if s.User != nil {
		c.log.Info("signed in", logger.Fields(logger.FieldUserID, s.User.ID))
	}
	return &s
}

func (c *Client) setToken(token string) {
	for _, h := range c.holders {
		h.SetAuthToken(token)
	}
}
