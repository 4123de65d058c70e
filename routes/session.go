package routes

import (
	"promptcoach/controllers"

	"github.com/gin-gonic/gin"
)

func SetupSessionRoutes(router gin.IRouter, ctrl *controllers.SessionController) {
	s := router.Group("/session")
	{
		s.GET("", ctrl.Get)
		s.POST("/username", ctrl.SetUsername)
		s.POST("/role", ctrl.SelectRole)
		s.POST("/submit", ctrl.Submit)
		s.POST("/reset", ctrl.Reset)
	}
}
