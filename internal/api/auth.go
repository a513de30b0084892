package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/models"
)

// AuthHandler serves sign-in endpoints.
type AuthHandler struct {
	svc AuthService
	log *logrus.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "email and password are required")

		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.log, "logging in", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": models.AuditLogin, "user_id": session.User.UserID}).Info("audit")

	c.JSON(http.StatusOK, session)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := getIdentity(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, id)
}
