package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/service"
)

// Plain-text bodies; clients show them to the user verbatim
const (
	msgMissingCredentials = "Missing 'username' or 'password'"
	msgUserExists         = "Username already exists"
	msgRegistered         = "User registered successfully"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidRequest     = "Invalid request"
	msgLoggedOut          = "Logged out"
	msgInternal           = "Internal server error"
)

const subjectKey = "subject"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Register handles account creation
func (h *AuthHandlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgInvalidRequest)
		return
	}

	err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMissingCredentials):
			c.String(http.StatusBadRequest, msgMissingCredentials)
		case errors.Is(err, core.ErrUserExists):
			c.String(http.StatusConflict, msgUserExists)
		default:
			c.String(http.StatusInternalServerError, msgInternal)
		}
		return
	}

	c.String(http.StatusCreated, msgRegistered)
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgInvalidRequest)
		return
	}

	accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMissingCredentials):
			c.String(http.StatusBadRequest, msgMissingCredentials)
		case errors.Is(err, core.ErrInvalidCredentials):
			c.String(http.StatusUnauthorized, msgInvalidCredentials)
		default:
			c.String(http.StatusInternalServerError, msgInternal)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Refresh issues a new access token for the bearer refresh token
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refreshToken, ok := bearerToken(c)
	if !ok {
		c.String(http.StatusUnauthorized, "Invalid authorization header")
		return
	}

	accessToken, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		status, msg := tokenErrorResponse(err, "Refresh token")
		c.String(status, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
	})
}

// Logout revokes the bearer refresh token
func (h *AuthHandlers) Logout(c *gin.Context) {
	refreshToken, ok := bearerToken(c)
	if !ok {
		c.String(http.StatusUnauthorized, "Invalid authorization header")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		status, msg := tokenErrorResponse(err, "Refresh token")
		c.String(status, msg)
		return
	}

	c.String(http.StatusOK, msgLoggedOut)
}

// SecureData returns the protected resource for the authenticated user
func (h *AuthHandlers) SecureData(c *gin.Context) {
	subject := c.GetString(subjectKey)
	if subject == "" {
		c.String(http.StatusInternalServerError, "User not found in context")
		return
	}

	c.String(http.StatusOK, fmt.Sprintf("Hello, %s! This is protected data.", subject))
}

// tokenErrorResponse maps token failures onto a status and message
func tokenErrorResponse(err error, what string) (int, string) {
	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return http.StatusUnauthorized, what + " expired"
	case errors.Is(err, core.ErrTokenInvalidated):
		return http.StatusUnauthorized, what + " has been invalidated"
	case errors.Is(err, core.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid " + strings.ToLower(what)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
