package auth

import (
	"net/http"
	"strings"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/errors"
)

// translate recognises the platform's auth messages and rewords them for end
// users. It returns nil for messages it does not know.
func translate(message string) error {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "invalid login credentials"):
		return errors.Unauthorized("invalid email or password")
	case strings.Contains(msg, "email not confirmed"):
		return errors.Unauthorized("please verify your email address before signing in")
	case strings.Contains(msg, "jwt expired"), strings.Contains(msg, "token expired"):
		return errors.TokenExpired()
	case strings.Contains(msg, "invalid jwt"), strings.Contains(msg, "invalid token"):
		return errors.Unauthorized("invalid session token")
	case strings.Contains(msg, "user already registered"):
		return errors.New(errors.ErrCodeAlreadyExists, "an account with this email already exists", http.StatusConflict)
	case strings.Contains(msg, "password") && strings.Contains(msg, "weak"):
		return errors.Validation("password is too weak")
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return errors.New(errors.ErrCodeRateLimited, "too many attempts, try again later", http.StatusTooManyRequests)
	case strings.Contains(msg, "user not found"):
		return errors.NotFound("user", "")
	}
	return nil
}

// failure converts a failed auth envelope into an AppError.
func failure[T any](env apiclient.Envelope[T]) error {
	if err := translate(env.Error); err != nil {
		return err
	}
	if env.Code == http.StatusBadRequest && env.Error == apiclient.StatusMessage(env.Code) {
		return errors.Validation("invalid request")
	}
	return env.Err()
}
