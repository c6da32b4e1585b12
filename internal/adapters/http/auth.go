package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/app"
	"github.com/avern/huddle/internal/domain"
)

const sessionAccountKey = "account_id"

// AuthHandlers is the account collaborator's HTTP surface. It shares nothing
// with the signaling core: a logged-in account and a connection handle are
// unrelated identities.
type AuthHandlers struct {
	Accounts *app.AccountStore
}

type signupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=36"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandlers) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}

	a, err := h.Accounts.Create(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("signup")
		c.JSON(http.StatusBadRequest, gin.H{"error": "signup failed"})
		return
	}

	h.openSession(c, a)
	c.JSON(http.StatusCreated, gin.H{
		"message": "account created",
		"user":    a,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	a, err := h.Accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.openSession(c, a)
	c.JSON(http.StatusOK, gin.H{
		"message": "logged in",
		"user":    a,
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Delete(sessionAccountKey)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("logout session save")
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandlers) CurrentUser(c *gin.Context) {
	s := sessions.Default(c)
	raw := s.Get(sessionAccountKey)
	id, ok := raw.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	a, ok := h.Accounts.Get(domain.AccountID(id))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AuthHandlers) openSession(c *gin.Context, a *domain.Account) {
	s := sessions.Default(c)
	s.Set(sessionAccountKey, string(a.ID))
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
}
