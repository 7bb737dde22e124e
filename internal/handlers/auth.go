package handlers

import (
	"net/http"
	"time"

	"opsboard/internal/middleware"
	"opsboard/internal/models"
	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues bearer tokens for known users. Users carry no
// credentials, so the endpoint is only mounted when identity is enabled on a
// trusted network.
type AuthHandler struct {
	userService services.UserService
	secret      string
	issuer      string
	ttl         time.Duration
}

type TokenRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        models.User `json:"user"`
}

func NewAuthHandler(userService services.UserService, secret, issuer string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{userService: userService, secret: secret, issuer: issuer, ttl: ttl}
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id is required")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := middleware.IssueToken(h.secret, h.issuer, user.ID, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "token_generation_failed",
			"message": "Failed to generate authentication token",
		})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.ttl.Seconds()),
		User:        user,
	})
}
