package http

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"netchi-api-go/internal/auth"
	"netchi-api-go/internal/models"
)

type UserDto struct {
	ID          uuid.UUID `json:"id"`
	UserName    string    `json:"userName"`
	PhoneNumber string    `json:"phoneNumber"`
	Type        string    `json:"type"`
}

// Auth Response Wrapper
type LoginResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
	User       UserDto   `json:"user"`
}

type OtpResponse struct {
	PhoneNumber   string `json:"phoneNumber"`
	Message       string `json:"message"`
	ExpirySeconds int    `json:"expirySeconds"`
}

func toUserDto(u *models.User) UserDto {
	return UserDto{ID: u.ID, UserName: u.UserName, PhoneNumber: u.Phone(), Type: string(u.Type)}
}

func toLoginResponse(sess *auth.Session) LoginResponse {
	return LoginResponse{Token: sess.Token, Expiration: sess.ExpiresAt, User: toUserDto(sess.User)}
}

func toOtpResponse(ch *auth.Challenge) OtpResponse {
	msg := "verification code sent"
	if ch.Code != "" {
		// Test convenience only, disable with OTP_ECHO_CODE=false.
		msg = fmt.Sprintf("verification code sent (test code: %s)", ch.Code)
	}
	return OtpResponse{PhoneNumber: ch.PhoneNumber, Message: msg, ExpirySeconds: int(ch.ExpiresIn / time.Second)}
}

// POST /api/v1/auth/login
func (s *Server) authLogin(c *gin.Context) {
	var input struct {
		Username    string `json:"username"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if !bindSchema(c, s.schemas.login, &input) {
		return
	}

	cred, err := auth.ParseCredential(input.Username, input.PhoneNumber, input.Password)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}
	res, err := s.auth.Login(c.Request.Context(), cred)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}
	if res.Challenge != nil {
		c.JSON(202, toOtpResponse(res.Challenge))
		return
	}
	c.JSON(200, toLoginResponse(res.Session))
}

// POST /api/v1/auth/register
func (s *Server) authRegister(c *gin.Context) {
	var input struct {
		Username    string `json:"username"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if !bindSchema(c, s.schemas.register, &input) {
		return
	}

	sess, err := s.auth.Register(c.Request.Context(), auth.RegisterInput{
		Username:    input.Username,
		PhoneNumber: input.PhoneNumber,
		Password:    input.Password,
	})
	if err != nil {
		s.writeAuthError(c, err)
		return
	}
	c.JSON(200, toLoginResponse(sess))
}

// POST /api/v1/auth/request-otp
func (s *Server) authRequestOtp(c *gin.Context) {
	var input struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if !bindSchema(c, s.schemas.requestOtp, &input) {
		return
	}

	ch, err := s.auth.RequestOTP(c.Request.Context(), input.PhoneNumber)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}
	c.JSON(200, toOtpResponse(ch))
}

// POST /api/v1/auth/verify-otp
func (s *Server) authVerifyOtp(c *gin.Context) {
	var input struct {
		PhoneNumber      string `json:"phoneNumber"`
		VerificationCode string `json:"verificationCode"`
	}
	if !bindSchema(c, s.schemas.verifyOtp, &input) {
		return
	}

	sess, err := s.auth.VerifyOTP(c.Request.Context(), input.PhoneNumber, input.VerificationCode)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}
	c.JSON(200, toLoginResponse(sess))
}

// GET /api/v1/auth/me
func (s *Server) authMe(c *gin.Context) {
	u, err := s.auth.CurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeAuthError(c, err)
		return
	}
	c.JSON(200, gin.H{"user": u})
}
