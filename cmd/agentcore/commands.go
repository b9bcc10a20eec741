// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/agentcore/pkg/agent"
	"github.com/jllopis/agentcore/pkg/config"
	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/httpapi"
	"github.com/jllopis/agentcore/pkg/mcp"
)

func runServe(ctx context.Context, global globalFlags, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, logOutput())
	if err != nil {
		return err
	}
	defer a.Close()

	if global.ConfigPath != "" {
		watcher, err := config.NewWatcher(global.ConfigPath, global.Profile, config.WithWatchLogger(a.logger))
		if err != nil {
			return err
		}
		watcher.OnChange(func(c *config.Config) {
			a.agent.SetToolFilter(toolFilter(c.Agent))
			a.logger.Info("agent.tool_filter.reload",
				slog.String("allow", strings.Join(c.Agent.AllowTools, ",")),
				slog.String("deny", strings.Join(c.Agent.DenyTools, ",")),
			)
		})
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	server := httpapi.New(httpapi.Deps{
		Runner:   a.agent,
		Notes:    a.notes,
		Registry: a.registry,
		Runs:     a.runs,
		Health:   a.health,
	}, httpapi.Options{
		Version:     version,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      a.logger,
	})
	return server.ListenAndServe(ctx, cfg.HTTP.Addr)
}

func runTask(ctx context.Context, global globalFlags, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	tools := fs.String("tools", "", "comma separated capability names")
	taskContext := fs.String("context", "", "additional context for the goal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logOutput())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.agent.Run(ctx, agent.Task{
		Goal:    strings.Join(fs.Args(), " "),
		Context: *taskContext,
		Tools:   splitList(*tools),
	})
	if err != nil {
		return err
	}
	return printResult(os.Stdout, global.Output, result)
}

func runNotes(ctx context.Context, global globalFlags, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: agentcore notes <proposal_id>")
	}
	a, err := newApp(ctx, cfg, logOutput())
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.notes.Notes(ctx, args[0])
	if err != nil {
		return err
	}
	if global.Output != "text" {
		return printStructured(os.Stdout, global.Output, map[string]any{"proposal_id": args[0], "notes": list})
	}
	for i, note := range list {
		fmt.Printf("%d. %s\n", i+1, note)
	}
	return nil
}

func runTools(ctx context.Context, global globalFlags, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, logOutput())
	if err != nil {
		return err
	}
	defer a.Close()
	return printTools(os.Stdout, global.Output, a.registry.List())
}

func runMCP(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, logOutput())
	if err != nil {
		return err
	}
	defer a.Close()
	return mcp.NewServer("agentcore", version, a.registry).ServeStdio()
}

func printResult(w io.Writer, format string, result agent.Result) error {
	if format != "text" {
		return printStructured(w, format, result)
	}
	fmt.Fprintf(w, "Run:    %s\nStatus: %s\nOutput: %s\n", result.RunID, result.Status, result.Output)
	if len(result.Trace) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tTOOL\tRESULT")
	for _, step := range result.Trace {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", step.Step, step.Tool, stepSummary(step))
	}
	return tw.Flush()
}

func printTools(w io.Writer, format string, descs []core.Descriptor) error {
	if format != "text" {
		return printStructured(w, format, map[string]any{"tools": descs})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREQUIRED\tDESCRIPTION")
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, strings.Join(d.InputSchema.Required, ","), d.Description)
	}
	return tw.Flush()
}

func stepSummary(step core.Step) string {
	if step.Failed() {
		return "error: " + step.ErrorText()
	}
	data, err := json.Marshal(step.Output)
	if err != nil {
		return fmt.Sprint(step.Output)
	}
	return string(data)
}

// printStructured writes v as indented JSON or as YAML with the JSON field names.
func printStructured(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == "json" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
