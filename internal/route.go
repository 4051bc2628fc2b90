package internal

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	docs "github.com/raids-lab/buildtracker/docs"
	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/middleware"
)

const APIPrefix = "/api"

// Register builds the gin engine with every manager in handler.Registers.
func Register(registerConfig *handler.RegisterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Metrics())

	// Enable CORS for http://localhost:XXXX in debug mode
	if gin.Mode() == gin.DebugMode {
		fe := os.Getenv("BUILDTRACKER_FE_PORT")
		if fe != "" {
			url := "http://localhost:" + fe
			corsConf := cors.DefaultConfig()
			corsConf.AllowOrigins = []string{url}
			corsConf.AddAllowHeaders("Authorization")
			r.Use(cors.New(corsConf))
		}
	}

	// Kubernetes health check
	r.GET("/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	metricsMgr := handler.NewMetricsMgr(registerConfig)
	r.GET("/metrics", metricsMgr.GetMetrics)

	// Swagger
	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, registerConfig)
	return r
}

func registerRoutes(r *gin.Engine, registerConfig *handler.RegisterConfig) {
	managers := registerManagers(registerConfig)

	///////////////////////////////////////
	//// Public routers, no need login ////
	///////////////////////////////////////

	publicRouter := r.Group(APIPrefix)

	///////////////////////////////////////
	//// Protected routers, need login ////
	///////////////////////////////////////

	protectedRouter := r.Group(APIPrefix)
	protectedRouter.Use(middleware.AuthProtected(registerConfig.TokenMgr, registerConfig.Query))

	///////////////////////////////////////
	//// Admin routers, need admin role ///
	///////////////////////////////////////

	adminRouter := r.Group(APIPrefix)
	adminRouter.Use(
		middleware.AuthProtected(registerConfig.TokenMgr, registerConfig.Query),
		middleware.AuthAdmin(registerConfig.Config.Auth.AdminUsername),
	)

	for _, mgr := range managers {
		mgr.RegisterPublic(publicRouter)
		mgr.RegisterProtected(protectedRouter)
		mgr.RegisterAdmin(adminRouter)
	}
}
