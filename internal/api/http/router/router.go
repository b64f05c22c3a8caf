package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nvoron/sessiond/internal/api/http/handler"
	"github.com/nvoron/sessiond/internal/api/http/middleware"
)

// New assembles the gin engine: recovery, request logging, session
// resolution, and the auth endpoints mounted under basePath.
func New(
	basePath string,
	auth *handler.Auth,
	session *middleware.Session,
	logging *middleware.Logging,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.Handle())
	engine.Use(session.Resolve())

	group := engine.Group(basePath)
	{
		group.GET("/csrf", auth.CSRF)
		group.GET("/session", auth.Session)
		group.GET("/providers", auth.Providers)
		group.POST("/signin/:provider", auth.SignIn)
		group.POST("/callback/:provider", auth.Callback)
		group.POST("/signout", auth.SignOut)
	}

	return engine
}
