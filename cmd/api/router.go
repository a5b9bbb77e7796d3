package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"profilevault/internal/domain/asset"
	"profilevault/internal/middleware"
	jwtsvc "profilevault/internal/pkg/jwt"
)

type routerDeps struct {
	tokens         *jwtsvc.Service
	users          middleware.UserLookup
	assets         *asset.Service
	maxUploadBytes int64
	sessionCookie  string
	corsOrigins    []string
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(d.corsOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(middleware.Authenticate(d.tokens, d.users, d.sessionCookie))
		{
			asset.RegisterRoutes(
				protected,
				asset.NewHandler(d.assets, d.maxUploadBytes),
				middleware.LoadRequestedUser(d.users),
				middleware.RequireSelfOrRole("admin"),
			)
		}
	}

	return r
}
