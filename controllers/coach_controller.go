package controllers

import (
	"errors"
	"net/http"

	"promptcoach/middlewares"
	"promptcoach/models"
	"promptcoach/services"

	"github.com/gin-gonic/gin"
)

// CoachController exposes the stateless scenario and evaluation operations
type CoachController struct {
	roles     *services.RoleCatalog
	scenarios *services.ScenarioService
	coach     *services.CoachService
}

func NewCoachController(roles *services.RoleCatalog, scenarios *services.ScenarioService, coach *services.CoachService) *CoachController {
	return &CoachController{roles: roles, scenarios: scenarios, coach: coach}
}

func (cc *CoachController) ListRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roles": cc.roles.All()})
}

func (cc *CoachController) GenerateScenario(c *gin.Context) {
	var req models.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	role, err := cc.roles.Get(req.RoleID)
	if err != nil {
		respondError(c, err)
		return
	}
	scenario, err := cc.scenarios.Generate(c.Request.Context(), role.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role, "scenario": scenario})
}

// Evaluate scores an instruction. Results are saved only for requests that
// carry a session identity.
func (cc *CoachController) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	role, err := cc.roles.Get(req.RoleID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := cc.coach.Evaluate(c.Request.Context(), services.EvaluateInput{
		Owner:       middlewares.Owner(c),
		Role:        role,
		Scenario:    req.Scenario,
		Instruction: req.UserPrompt,
	})
	if errors.Is(err, services.ErrEmptyInstruction) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
