package trigger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xhanulik/oss-fuzz/internal/gcb"
	"github.com/xhanulik/oss-fuzz/internal/plan"
)

// Body of a build submission request.
type buildRequest struct {
	Flavor string `json:"flavor" binding:"required"`
}

// Handles POST /v1/projects/:project/builds.
//
// Compiles the requested flavor for the project, submits the plan, and
// records the returned build id. A project the compiler skips yields 204
// and nothing is submitted.
func (s *Server) submitBuild(c *gin.Context) {
	project := c.Param("project")

	var req buildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var compile func(context.Context, ...string) ([]*plan.Plan, error)
	switch req.Flavor {
	case plan.TagFuzzing:
		compile = s.cfg.Compiler.Fuzzing
	case plan.TagCoverage:
		compile = s.cfg.Compiler.Coverage
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown flavor " + req.Flavor})
		return
	}

	buildsRequested.WithLabelValues(req.Flavor).Inc()
	ctx := c.Request.Context()

	plans, err := compile(ctx, project)
	if err != nil {
		buildsFailed.WithLabelValues(req.Flavor).Inc()
		slog.Error("plan compilation failed", "project", project, "flavor", req.Flavor, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	p := plans[0]
	if p.Empty() {
		buildsSkipped.WithLabelValues(req.Flavor).Inc()
		c.Status(http.StatusNoContent)
		return
	}

	buildID, err := s.cfg.Submitter.Submit(ctx, gcb.Request(p, s.cfg.Options))
	if err != nil {
		buildsFailed.WithLabelValues(req.Flavor).Inc()
		slog.Error("build submission failed", "project", project, "flavor", req.Flavor, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	// The build is already running; a lost history entry is not worth
	// failing the request over.
	if err := s.cfg.Ledger.RecordBuild(ctx, project, req.Flavor, buildID); err != nil {
		slog.Error("recording build failed", "project", project, "build", buildID, "error", err)
	}

	buildsSubmitted.WithLabelValues(req.Flavor).Inc()
	slog.Info("build submitted", "project", project, "flavor", req.Flavor, "build", buildID)

	c.JSON(http.StatusCreated, gin.H{
		"build_id": buildID,
		"logs_url": gcb.LogsURL(buildID, s.cfg.BuildsProject),
		"steps":    len(p.Steps),
	})
}

// Handles GET /v1/projects/:project/history. The tag query parameter
// selects the flavor, defaulting to fuzzing.
func (s *Server) buildHistory(c *gin.Context) {
	project := c.Param("project")
	tag := c.DefaultQuery("tag", plan.TagFuzzing)

	ids, err := s.cfg.Ledger.History(c.Request.Context(), project, tag)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"project":   project,
		"tag":       tag,
		"build_ids": ids,
	})
}

// Handles GET /healthz.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
