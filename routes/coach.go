package routes

import (
	"promptcoach/controllers"

	"github.com/gin-gonic/gin"
)

// SetupCoachRoutes registers the stateless training endpoints. The caller
// decides which auth middleware guards the group.
func SetupCoachRoutes(router gin.IRouter, ctrl *controllers.CoachController) {
	router.GET("/roles", ctrl.ListRoles)

	coach := router.Group("/coach")
	{
		coach.POST("/scenario", ctrl.GenerateScenario)
		coach.POST("/evaluate", ctrl.Evaluate)
	}
}
