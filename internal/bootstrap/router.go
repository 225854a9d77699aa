package bootstrap

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/onoo-labs/marketing-assistant/internal/api/http"
	"github.com/onoo-labs/marketing-assistant/internal/api/http/middleware"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	storehttp "github.com/onoo-labs/marketing-assistant/internal/projectstore/http"
	"github.com/onoo-labs/marketing-assistant/internal/projectstore/repository"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	AllowOrigins []string
	Backend      string
	ProjectKey   string
	Repo         repository.Repository
	Log          logging.Logger
}

// SetGinMode maps APP_ENV onto gin's release, test and debug modes.
func SetGinMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}

// BuildRouter mounts health checks at the root and the project store
// under /api.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Log))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, httpapi.StoreInfo{
		Backend:    dep.Backend,
		ProjectKey: dep.ProjectKey,
		Pinger:     dep.Repo,
	})
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")
	api.Use(storehttp.CORS(dep.AllowOrigins))

	storehttp.NewHandler(dep.Repo, dep.Log).Register(api)

	return r
}
