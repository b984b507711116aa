package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roombooking-backend/internal/auth"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/store"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=256"`
	Name     string `json:"name" binding:"required,max=256"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Locale   string `json:"locale" binding:"max=16"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (h *Handler) issueToken(c *gin.Context, status int, u *model.User) {
	token, exp, err := h.issuer.Issue(u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, tokenResponse{Token: token, ExpiresAt: exp.Format(timeLayout), User: u})
}

// Register creates a USER account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		h.fail(c, err)
		return
	}
	u := &model.User{
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         model.RoleUser,
		Locale:       req.Locale,
		Active:       true,
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("user registered", zap.Int64("user_id", u.ID))
	h.issueToken(c, http.StatusCreated, u)
}

// Login exchanges email and password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.store.GetUserByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		h.fail(c, auth.ErrBadCredentials)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil || !u.Active {
		h.fail(c, auth.ErrBadCredentials)
		return
	}

	h.issueToken(c, http.StatusOK, u)
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
