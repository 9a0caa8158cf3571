package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xfactorlab/internal/combat"
	"xfactorlab/internal/config"
	"xfactorlab/internal/experiment"
	xotel "xfactorlab/internal/platform/otel"
	"xfactorlab/internal/report"
	"xfactorlab/internal/store"
	"xfactorlab/internal/util"
)

const serviceName = "xfactor-simsvc"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	s, err := config.ParseSettings(flag.NewFlagSet("simsvc", flag.ContinueOnError), args)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: s.SlogLevel()}))
	slog.SetDefault(logger)

	shutdown, err := xotel.Setup(ctx, xotel.Options{
		Service:     serviceName,
		Endpoint:    s.OTelEndpoint,
		SampleRatio: s.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("tracing shutdown", "err", err)
		}
	}()

	p, err := config.LoadProfile(s.ConfigDir, s.Profile)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	c, err := combat.NewCharacter(p)
	if err != nil {
		return fmt.Errorf("building character: %w", err)
	}
	if s.Turns > 0 {
		if c, err = c.WithTurns(s.Turns); err != nil {
			return err
		}
	}
	logger.Info("profile loaded", "profile", c.ID, "turns", c.Turns, "builds", c.BuildNames(), "supports", c.SupportNames())

	if s.Out == "" {
		return simulate(ctx, c, s, logger, stdout)
	}
	f, err := os.Create(s.Out)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := simulate(ctx, c, s, logger, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output %s: %w", s.Out, err)
	}
	return nil
}

// simulate writes either a single traced run or the comparison table to out
// and saves the table when a store is configured.
func simulate(ctx context.Context, c *combat.Character, s config.Settings, logger *slog.Logger, out io.Writer) error {
	if s.Trace {
		return traceOne(c, s, out)
	}

	r := &experiment.Runner{
		Character: c,
		Runs:      s.Runs,
		Seed:      s.Seed,
		Workers:   s.Workers,
		MaxQueue:  s.MaxQueue,
		Logger:    logger,
	}
	tbl, err := r.Matrix(ctx, s.Supports, s.Builds)
	if err != nil {
		return err
	}
	if err := report.Write(out, tbl, report.Options{Format: s.Format, Locale: s.Locale, PerTurn: s.PerTurn}); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if s.StoreDSN == "" {
		return nil
	}
	st, err := store.Open(ctx, s.StoreDriver, s.StoreDSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	records := store.Records(tbl, time.Now())
	if err := st.Save(ctx, records); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	logger.Info("results saved", "driver", s.StoreDriver, "records", len(records))
	return nil
}

// traceOne plays a single recorded run with the first selected support and
// build and writes its event log.
func traceOne(c *combat.Character, s config.Settings, w io.Writer) error {
	support := config.SupportNone
	if len(s.Supports) > 0 {
		support = s.Supports[0]
	}
	build := c.BuildNames()[0]
	if len(s.Builds) > 0 {
		build = s.Builds[0]
	}
	sup, err := c.Support(support)
	if err != nil {
		return err
	}
	b, err := c.Build(build)
	if err != nil {
		return err
	}

	env := &combat.Env{Rng: util.New(s.Seed), MaxQueue: s.MaxQueue, Record: true}
	res := combat.RunSingle(env, c, sup, b)
	if _, err := w.Write(append(combat.MarshalPretty(res), '\n')); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	slog.Info("trace finished", "support", support, "build", build, "total", res.Total, "events", len(res.Events))
	return nil
}
