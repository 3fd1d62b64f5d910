// Package api exposes the HTTP control surface: job submission and
// inspection, variant stats, health and metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/jobs"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/variant"
)

const defaultListLimit = 50

// JobSubmitter creates jobs; the worker picks them up asynchronously.
type JobSubmitter interface {
	Submit(ctx context.Context, niche string, preview bool) (*domain.Job, error)
}

// PostLister reads the posts a job produced.
type PostLister interface {
	ListByJob(ctx context.Context, jobID string) ([]domain.Post, error)
}

// Handlers provides HTTP handlers for the API
type Handlers struct {
	submitter JobSubmitter
	jobStore  jobs.JobStore
	posts     PostLister
	variants  variant.StatsProvider
	logger    logger.Logger
	version   string
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	submitter JobSubmitter,
	jobStore jobs.JobStore,
	posts PostLister,
	variants variant.StatsProvider,
	log logger.Logger,
	version string,
) *Handlers {
	return &Handlers{
		submitter: submitter,
		jobStore:  jobStore,
		posts:     posts,
		variants:  variants,
		logger:    log,
		version:   version,
	}
}

type createJobRequest struct {
	Niche       string `json:"niche"`
	PreviewMode bool   `json:"preview_mode"`
}

// CreateJob handles POST /api/v1/jobs
func (h *Handlers) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Niche = strings.TrimSpace(strings.ToLower(req.Niche))
	if req.Niche == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "niche is required"})
		return
	}

	job, err := h.submitter.Submit(c.Request.Context(), req.Niche, req.PreviewMode)
	if err != nil {
		h.logger.Error("Failed to create job",
			logger.Error(err),
			logger.String("niche", req.Niche),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// ListJobs handles GET /api/v1/jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}

	list, err := h.jobStore.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list jobs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := h.jobStore.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Failed to get job",
			logger.Error(err),
			logger.String("job_id", c.Param("id")),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetJobPosts handles GET /api/v1/jobs/:id/posts
func (h *Handlers) GetJobPosts(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := h.jobStore.GetByID(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}

	posts, err := h.posts.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to list posts",
			logger.Error(err),
			logger.String("job_id", jobID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

// GetVariantStats handles GET /api/v1/variants/stats
func (h *Handlers) GetVariantStats(c *gin.Context) {
	stats, err := h.variants.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get variant stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get variant stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"strategies": stats})
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pulse",
		"version": h.version,
	})
}
