package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ProjectPath is the single resource served by the store.
const ProjectPath = "/project"

// CORS builds the permissive policy the web client relies on. An origin
// list of "*" allows every origin.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Register mounts the project routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET(ProjectPath, h.GetProject)
	rg.POST(ProjectPath, h.SaveProject)
	rg.OPTIONS(ProjectPath, h.Preflight)
	for _, m := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		rg.Handle(m, ProjectPath, h.MethodNotAllowed)
	}
}
