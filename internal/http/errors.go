package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"netchi-api-go/internal/auth"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty: use err.Error()
}

// Unknown identifier and wrong password share ErrInvalidCredentials, so
// password login never tells the caller which one failed.
var authErrors = []errorMapping{
	{auth.ErrValidation, 400, "validation_error", ""},
	{auth.ErrConflict, 400, "conflict", ""},
	{auth.ErrInvalidCredentials, 401, "invalid_credentials", "invalid username or password"},
	{auth.ErrAccountInactive, 401, "account_inactive", "account is inactive"},
	{auth.ErrUserNotFound, 401, "not_found", "phone number not found"},
	{auth.ErrOTPExpired, 401, "otp_expired", "verification code expired"},
	{auth.ErrAttemptsExceeded, 401, "attempts_exceeded", "too many failed attempts, request a new code"},
	{auth.ErrInvalidCode, 401, "invalid_code", "verification code is incorrect"},
}

func (s *Server) writeAuthError(c *gin.Context, err error) {
	for _, m := range authErrors {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			c.JSON(m.status, gin.H{"error": m.code, "message": msg})
			return
		}
	}
	s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(500, gin.H{"error": "internal_error", "message": "internal error"})
}
