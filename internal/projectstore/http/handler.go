package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
	"github.com/onoo-labs/marketing-assistant/internal/projectstore/repository"
)

// MaxDocumentBytes bounds a saved document; logos and generated images are
// embedded as data URIs.
const MaxDocumentBytes = 10 << 20

const allowedMethods = "GET, POST, OPTIONS"

type Handler struct {
	repo repository.Repository
	log  logging.Logger
}

func NewHandler(repo repository.Repository, log logging.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// GetProject returns the stored document verbatim.
func (h *Handler) GetProject(c *gin.Context) {
	log := h.log.FromContext(c.Request.Context())

	doc, err := h.repo.Get(c.Request.Context())
	if errors.Is(err, domain.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "No project found."})
		return
	}
	if err != nil {
		log.LogError("projectstore.get", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project."})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

// SaveProject replaces the stored document with the request body, which
// must be a JSON object with at least one key.
func (h *Handler) SaveProject(c *gin.Context) {
	log := h.log.FromContext(c.Request.Context())

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Project data too large."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No project data provided."})
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No project data provided."})
		return
	}

	if err := h.repo.Put(c.Request.Context(), bytes.TrimSpace(body)); err != nil {
		log.LogError("projectstore.save", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save project."})
		return
	}

	log.LogInfof("projectstore.save", "stored project document (%d bytes)", len(body))
	c.JSON(http.StatusOK, gin.H{"message": "Project saved successfully."})
}

// Preflight answers OPTIONS requests that carry no Origin and so bypass
// the CORS middleware.
func (h *Handler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *Handler) MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", allowedMethods)
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method " + c.Request.Method + " Not Allowed"})
}
