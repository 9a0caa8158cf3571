package experiment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"xfactorlab/internal/combat"
	"xfactorlab/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadCharacter(t *testing.T, id string) *combat.Character {
	t.Helper()
	p, err := config.LoadProfile("", id)
	require.NoError(t, err)
	c, err := combat.NewCharacter(p)
	require.NoError(t, err)
	return c
}

// certainCharacter resolves the same way every run.
func certainCharacter(t *testing.T) *combat.Character {
	t.Helper()
	c, err := combat.NewCharacter(&config.Profile{
		ID:          "certain",
		Turns:       4,
		Enemies:     3,
		Primary:     config.PrimaryDef{Rate: 1, Coefficient: 1, Targets: 2},
		ExtraAttack: 1,
		Builds: []config.BuildDef{
			{Name: "follow", Kind: config.BuildFollowUp, Rate: 1, Coefficient: 0.4, PerTurn: 0.1, Targets: 3, ExtraHit: 1},
		},
		Supports: []config.SupportDef{
			{Name: "flat", Kind: config.SupportFlatBonus, TotalBonus: 0.1},
		},
	})
	require.NoError(t, err)
	return c
}

func TestRunDeterministicCharacter(t *testing.T) {
	r := &Runner{Character: certainCharacter(t), Runs: 200, Seed: 1, Logger: quietLogger()}

	s, err := r.Run(context.Background(), config.SupportNone, "follow")
	require.NoError(t, err)
	assert.InDelta(t, 63.6, s.Stats.Mean, 1e-9)
	assert.InDelta(t, 0, s.Stats.StdDev, 1e-9)
	assert.InDelta(t, 63.6, s.Stats.P99, 1e-9)
	assert.InDelta(t, 12, s.MeanAttacks, 1e-9)
	require.Len(t, s.PerTurn, 4)
	assert.InDelta(t, 13.2, s.PerTurn[0], 1e-9)
	assert.InDelta(t, 18.6, s.PerTurn[3], 1e-9)
}

func TestRunSameForAnyWorkerCount(t *testing.T) {
	c := loadCharacter(t, "nver")
	support := c.SupportNames()[1]
	build := c.BuildNames()[0]

	var got []Summary
	for _, workers := range []int{1, 3, 8} {
		r := &Runner{Character: c, Runs: 3000, Seed: 42, Workers: workers, Logger: quietLogger()}
		s, err := r.Run(context.Background(), support, build)
		require.NoError(t, err)
		s.Elapsed = 0
		got = append(got, s)
	}
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[0], got[2])
}

func TestRunConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("long Monte Carlo run")
	}
	for _, id := range []string{"wangyi", "nver"} {
		t.Run(id, func(t *testing.T) {
			c := loadCharacter(t, id)
			build := c.BuildNames()[0]
			var means []float64
			for _, seed := range []int64{1, 2} {
				r := &Runner{Character: c, Runs: 50000, Seed: seed, Logger: quietLogger()}
				s, err := r.Run(context.Background(), config.SupportNone, build)
				require.NoError(t, err)
				means = append(means, s.Stats.Mean)
			}
			assert.InEpsilon(t, means[0], means[1], 0.01)
		})
	}
}

func TestRunErrors(t *testing.T) {
	c := certainCharacter(t)

	t.Run("unknown support", func(t *testing.T) {
		r := &Runner{Character: c, Runs: 10, Logger: quietLogger()}
		_, err := r.Run(context.Background(), "nobody", "follow")
		assert.ErrorIs(t, err, config.ErrUnknownSupport)
	})

	t.Run("unknown build", func(t *testing.T) {
		r := &Runner{Character: c, Runs: 10, Logger: quietLogger()}
		_, err := r.Run(context.Background(), config.SupportNone, "nothing")
		assert.ErrorIs(t, err, config.ErrUnknownBuild)
	})

	t.Run("no runs", func(t *testing.T) {
		r := &Runner{Character: c, Logger: quietLogger()}
		_, err := r.Run(context.Background(), config.SupportNone, "follow")
		assert.ErrorContains(t, err, "runs must be positive")
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := &Runner{Character: c, Runs: 10, Logger: quietLogger()}
		_, err := r.Run(ctx, config.SupportNone, "follow")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := &Runner{Character: certainCharacter(t), Runs: 5, Logger: quietLogger(), Tracer: tp.Tracer("test")}
	_, err := r.Run(context.Background(), "flat", "follow")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "experiment.run", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("xfactor.support", "flat"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("xfactor.runs", 5))
}

func TestMatrix(t *testing.T) {
	r := &Runner{Character: certainCharacter(t), Runs: 20, Logger: quietLogger()}

	tbl, err := r.Matrix(context.Background(), []string{"flat"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "certain", tbl.Profile)
	assert.Equal(t, []string{"follow"}, tbl.Builds)
	require.Len(t, tbl.Rows, 2)

	// flat bonus scales everything by 1.1 and sorts first
	assert.Equal(t, "flat", tbl.Rows[0].Support)
	assert.InDelta(t, 0.1, tbl.Rows[0].Cells[0].Uplift, 1e-9)
	assert.Equal(t, config.SupportNone, tbl.Rows[1].Support)
	assert.Zero(t, tbl.Rows[1].Cells[0].Uplift)
}

func TestMatrixAllSupports(t *testing.T) {
	c := loadCharacter(t, "nver")
	r := &Runner{Character: c, Runs: 300, Seed: 9, Logger: quietLogger()}

	tbl, err := r.Matrix(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, len(c.SupportNames()))
	for i, row := range tbl.Rows {
		require.Len(t, row.Cells, len(c.BuildNames()))
		if row.Support == config.SupportNone {
			for _, cell := range row.Cells {
				assert.Zero(t, cell.Uplift)
			}
		}
		if i > 0 {
			assert.GreaterOrEqual(t, tbl.Rows[i-1].Cells[0].Summary.Stats.Mean, row.Cells[0].Summary.Stats.Mean)
		}
	}
}

func TestMatrixRejectsUnknownNames(t *testing.T) {
	r := &Runner{Character: certainCharacter(t), Runs: 10, Logger: quietLogger()}

	_, err := r.Matrix(context.Background(), []string{"flat", "ghost"}, nil)
	assert.ErrorIs(t, err, config.ErrUnknownSupport)
	_, err = r.Matrix(context.Background(), nil, []string{"ghost"})
	assert.ErrorIs(t, err, config.ErrUnknownBuild)
}
