// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpapi exposes the agent over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jllopis/agentcore/pkg/agent"
	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/notes"
	"github.com/jllopis/agentcore/pkg/registry"
	"github.com/jllopis/agentcore/pkg/runstore"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "agentcore"

// Runner executes one task. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, task agent.Task) (agent.Result, error)
}

// Deps are the collaborators served by the API. Runs and Health are optional.
type Deps struct {
	Runner   Runner
	Notes    notes.Store
	Registry *registry.Registry
	Runs     runstore.Store
	Health   *core.HealthChecks
}

// Options configure the HTTP layer.
type Options struct {
	Version     string
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server owns the gin engine.
type Server struct {
	deps   Deps
	opts   Options
	engine *gin.Engine
}

// New builds the router with recovery, request logging and CORS.
func New(deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{deps: deps, opts: opts}

	g := gin.New()
	g.Use(requestLogger(opts.Logger), gin.Recovery())
	if len(opts.CORSOrigins) > 0 {
		g.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}
	s.attachRoutes(g)
	s.engine = g
	return s
}

func (s *Server) attachRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/run-task", s.runTask)
		v1.GET("/governance-notes/:proposal_id", s.governanceNotes)
		v1.GET("/health", s.health)
		v1.GET("/health/ready", s.ready)
		v1.GET("/tools", s.tools)
		v1.GET("/runs", s.listRuns)
		v1.GET("/runs/:run_id", s.getRun)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
// A listen failure is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.opts.Logger.Info("http.server.start", slog.String("addr", addr), slog.String("version", s.opts.Version))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.opts.Logger.Info("http.server.stop", slog.String("addr", addr))
	return nil
}
