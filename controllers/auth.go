package controllers

import (
	"net/http"

	"promptcoach/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AuthController struct {
	tokens *utils.TokenManager
	tenant string
	log    zerolog.Logger
}

func NewAuthController(tokens *utils.TokenManager, tenant string, log zerolog.Logger) *AuthController {
	return &AuthController{tokens: tokens, tenant: tenant, log: log}
}

// AnonymousSignIn issues a session identity for a new anonymous user
func (a *AuthController) AnonymousSignIn(c *gin.Context) {
	token, claims, err := a.tokens.IssueAnonymous(a.tenant)
	if err != nil {
		a.log.Error().Err(err).Msg("anonymous sign-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"userId":    claims.UserID,
		"expiresAt": claims.ExpiresAt.Time,
	})
}
