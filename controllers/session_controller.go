package controllers

import (
	"net/http"

	"promptcoach/middlewares"
	"promptcoach/session"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	sessions *session.Manager
}

func NewSessionController(sessions *session.Manager) *SessionController {
	return &SessionController{sessions: sessions}
}

func (s *SessionController) controller(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := s.sessions.Get(c.Request.Context(), middlewares.Owner(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return ctrl, true
}

// reply sends the state along with the error, if any, so clients can
// re-render either way.
func reply(c *gin.Context, st session.State, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "state": st})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *SessionController) Get(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *SessionController) SetUsername(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	st, err := ctrl.SetUsername(c.Request.Context(), req.Username)
	reply(c, st, err)
}

func (s *SessionController) SelectRole(c *gin.Context) {
	var req struct {
		RoleID string `json:"roleId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	st, err := ctrl.SelectRole(c.Request.Context(), req.RoleID)
	reply(c, st, err)
}

func (s *SessionController) Submit(c *gin.Context) {
	var req struct {
		UserPrompt string `json:"userPrompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	st, err := ctrl.Submit(c.Request.Context(), req.UserPrompt)
	reply(c, st, err)
}

func (s *SessionController) Reset(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Reset())
}
