// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jllopis/agentcore/pkg/agent"
	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/jllopis/agentcore/pkg/runstore"
)

type reqRunTask struct {
	Goal    string   `json:"goal"`
	Context string   `json:"context"`
	Tools   []string `json:"tools"`
}

func (s *Server) runTask(c *gin.Context) {
	var req reqRunTask
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidInput, "request body must be a JSON object with a goal", err))
		return
	}
	result, err := s.deps.Runner.Run(c.Request.Context(), agent.Task{
		Goal:    req.Goal,
		Context: req.Context,
		Tools:   req.Tools,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) governanceNotes(c *gin.Context) {
	id := c.Param("proposal_id")
	list, err := s.deps.Notes.Notes(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"proposal_id": id, "notes": list})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": s.opts.Version,
	})
}

func (s *Server) ready(c *gin.Context) {
	if s.deps.Health == nil {
		c.JSON(http.StatusOK, gin.H{"status": core.HealthHealthy, "checks": []core.HealthResult{}})
		return
	}
	results, overall := s.deps.Health.CheckAll(c.Request.Context())
	status := http.StatusOK
	if overall == core.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

func (s *Server) tools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.deps.Registry.List()})
}

func (s *Server) getRun(c *gin.Context) {
	if s.deps.Runs == nil {
		abortWithError(c, errors.Newf(errors.CodeNotFound, "run store is disabled"))
		return
	}
	run, err := s.deps.Runs.Get(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) listRuns(c *gin.Context) {
	if s.deps.Runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []runstore.Run{}})
		return
	}
	filter := runstore.Filter{Status: c.Query("status")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			abortWithError(c, errors.Newf(errors.CodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	runs, err := s.deps.Runs.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
