// Package experiment repeats the combat simulator over many seeded runs and
// aggregates the damage samples.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"xfactorlab/internal/combat"
	"xfactorlab/internal/util"
)

const tracerName = "xfactorlab/internal/experiment"

// Runner holds what every experiment of one character shares.
type Runner struct {
	Character *combat.Character
	Runs      int
	Seed      int64
	Workers   int // 0: one per CPU
	MaxQueue  int
	Logger    *slog.Logger
	Tracer    trace.Tracer
}

// Summary is the aggregate of Runs samples of one (support, build) pair.
type Summary struct {
	Profile     string        `json:"profile"`
	Support     string        `json:"support"`
	Build       string        `json:"build"`
	Runs        int           `json:"runs"`
	Seed        int64         `json:"seed"`
	Turns       int           `json:"turns"`
	Stats       Stats         `json:"stats"`
	PerTurn     []float64     `json:"per_turn"`
	MeanAttacks float64       `json:"mean_attacks"`
	Dropped     int           `json:"dropped,omitempty"`
	Elapsed     time.Duration `json:"-"`
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}
	return otel.Tracer(tracerName)
}

func (r *Runner) workers() int {
	w := r.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return max(1, min(w, r.Runs))
}

// Run simulates support and build Runs times. Run i always uses the RNG
// stream (Seed, i), so the summary is the same for any worker count.
func (r *Runner) Run(ctx context.Context, support, build string) (Summary, error) {
	if r.Character == nil {
		return Summary{}, errors.New("runner has no character")
	}
	if r.Runs <= 0 {
		return Summary{}, fmt.Errorf("runs must be positive (got %d)", r.Runs)
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	c := r.Character
	sup, err := c.Support(support)
	if err != nil {
		return Summary{}, err
	}
	b, err := c.Build(build)
	if err != nil {
		return Summary{}, err
	}

	ctx, span := r.tracer().Start(ctx, "experiment.run", trace.WithAttributes(
		attribute.String("xfactor.profile", c.ID),
		attribute.String("xfactor.support", support),
		attribute.String("xfactor.build", build),
		attribute.Int("xfactor.runs", r.Runs),
		attribute.Int64("xfactor.seed", r.Seed),
	))
	defer span.End()

	start := time.Now()
	turns := c.Turns
	totals := make([]float64, r.Runs)
	perTurn := make([]float64, r.Runs*turns)
	workers := r.workers()
	attacks := make([]int, workers)
	dropped := make([]int, workers)

	jobs := make(chan int, workers)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range r.Runs {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := range workers {
		g.Go(func() error {
			env := &combat.Env{MaxQueue: r.MaxQueue}
			var n, att, drop int
			for i := range jobs {
				env.Rng = util.Stream(r.Seed, uint64(i))
				res := combat.RunSingle(env, c, sup, b)
				totals[i] = res.Total
				copy(perTurn[i*turns:(i+1)*turns], res.PerTurn)
				att += res.Attacks
				drop += res.Dropped
				n++
			}
			attacks[w], dropped[w] = att, drop
			r.logger().Debug("worker finished", "worker", w, "runs", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Summary{}, fmt.Errorf("experiment %s/%s: %w", support, build, err)
	}

	s := Summary{
		Profile: c.ID,
		Support: support,
		Build:   build,
		Runs:    r.Runs,
		Seed:    r.Seed,
		Turns:   turns,
		Stats:   calcStats(totals),
		PerTurn: make([]float64, turns),
		Elapsed: time.Since(start),
	}
	for i := range r.Runs {
		for t := range turns {
			s.PerTurn[t] += perTurn[i*turns+t]
		}
	}
	for t := range s.PerTurn {
		s.PerTurn[t] /= float64(r.Runs)
	}
	var totalAttacks int
	for w := range workers {
		totalAttacks += attacks[w]
		s.Dropped += dropped[w]
	}
	s.MeanAttacks = float64(totalAttacks) / float64(r.Runs)

	span.SetAttributes(attribute.Float64("xfactor.mean", s.Stats.Mean))
	r.logger().Info("experiment finished",
		"profile", s.Profile,
		"support", support,
		"build", build,
		"runs", s.Runs,
		"mean", s.Stats.Mean,
		"elapsed", s.Elapsed,
	)
	return s, nil
}
