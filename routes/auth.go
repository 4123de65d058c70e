package routes

import (
	"promptcoach/controllers"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(router gin.IRouter, ctrl *controllers.AuthController) {
	auth := router.Group("/auth")
	{
		auth.POST("/anonymous", ctrl.AnonymousSignIn)
	}
}
