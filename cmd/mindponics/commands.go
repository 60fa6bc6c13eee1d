package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ruvenwang/mindponics/internal/adapter/history"
	"github.com/ruvenwang/mindponics/internal/adapter/render"
	"github.com/ruvenwang/mindponics/internal/infra/logger"
	"github.com/ruvenwang/mindponics/internal/usecase/monitor"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

// withRuntime loads config, wires the runtime and runs fn under a context
// cancelled on SIGINT or SIGTERM.
func withRuntime(args cliArgs, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := initRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := fn(ctx, rt)
	if err := rt.close(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	return runErr
}

func runAsk(args cliArgs) error {
	query := strings.TrimSpace(strings.Join(args.rest, " "))
	if query == "" {
		return errors.New("a question is required, e.g. mindponics ask \"is my water ok?\"")
	}
	out := render.New(os.Stdout, args.plain)

	return withRuntime(args, func(ctx context.Context, rt *runtime) error {
		answer, err := rt.orchestrator.Ask(ctx, multiagent.Request{Query: query})
		if err != nil {
			return err
		}
		out.Answer(answer)
		return nil
	})
}

func runTool(args cliArgs) error {
	out := render.New(os.Stdout, args.plain)

	return withRuntime(args, func(ctx context.Context, rt *runtime) error {
		if len(args.rest) == 0 {
			out.Tools(rt.tools.Schemas())
			return nil
		}
		name := args.rest[0]
		params := json.RawMessage("{}")
		if len(args.rest) > 1 {
			raw := strings.Join(args.rest[1:], " ")
			if !json.Valid([]byte(raw)) {
				return fmt.Errorf("parameters for %s are not valid JSON: %s", name, raw)
			}
			params = json.RawMessage(raw)
		}

		res, err := rt.tools.Execute(ctx, name, params)
		if err != nil {
			return err
		}
		out.ToolResult(res)
		if res.IsError {
			return fmt.Errorf("tool %s failed", name)
		}
		return nil
	})
}

func runMonitor(args cliArgs) error {
	out := render.New(os.Stdout, args.plain)

	return withRuntime(args, func(ctx context.Context, rt *runtime) error {
		query := rt.cfg.Monitor.Query
		if len(args.rest) > 0 {
			query = strings.Join(args.rest, " ")
		}
		m, err := monitor.New(rt.orchestrator, monitor.Config{
			Schedule: rt.cfg.Monitor.Schedule,
			Query:    query,
		},
			monitor.WithBus(rt.bus),
			monitor.WithLogger(logger.Component(rt.log, "monitor")),
			monitor.OnAnswer(func(a *multiagent.Answer, err error) {
				if err != nil {
					fmt.Fprintf(os.Stderr, "monitor cycle failed: %v\n", err)
					return
				}
				out.Answer(a)
			}),
		)
		if err != nil {
			return err
		}

		if args.once {
			_, err := m.RunOnce(ctx)
			return err
		}

		m.Start(ctx)
		fmt.Fprintf(os.Stderr, "monitoring on %q, next cycle at %s (Ctrl+C to stop)\n",
			rt.cfg.Monitor.Schedule, m.Next().Format("15:04:05"))
		<-ctx.Done()
		m.Stop()
		return nil
	})
}

// runHistory reads the history store directly; it needs no workers.
func runHistory(args cliArgs) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("history is disabled; set history.enabled in the config")
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	limit := args.limit
	if limit == 0 {
		limit = cfg.History.Limit
	}
	entries, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	render.New(os.Stdout, args.plain).History(entries)
	return nil
}
