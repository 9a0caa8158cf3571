package experiment

import (
	"context"
	"slices"
	"sort"

	"xfactorlab/internal/config"
)

// Table is a support × build comparison. Uplift is measured against the
// "none" row of the same build.
type Table struct {
	Profile string   `json:"profile"`
	Builds  []string `json:"builds"`
	Rows    []Row    `json:"rows"`
}

type Row struct {
	Support string `json:"support"`
	Cells   []Cell `json:"cells"`
}

type Cell struct {
	Summary Summary `json:"summary"`
	Uplift  float64 `json:"uplift"`
}

// Matrix runs every pair of supports and builds. Empty lists select all the
// character has. The baseline support is always included. Rows are sorted by
// the mean of the first build, highest first.
func (r *Runner) Matrix(ctx context.Context, supports, builds []string) (Table, error) {
	if len(supports) == 0 {
		supports = r.Character.SupportNames()
	}
	if len(builds) == 0 {
		builds = r.Character.BuildNames()
	}
	if !slices.Contains(supports, config.SupportNone) {
		supports = append([]string{config.SupportNone}, supports...)
	}

	// resolve every name before the first run
	for _, s := range supports {
		if _, err := r.Character.Support(s); err != nil {
			return Table{}, err
		}
	}
	for _, b := range builds {
		if _, err := r.Character.Build(b); err != nil {
			return Table{}, err
		}
	}

	t := Table{Profile: r.Character.ID, Builds: slices.Clone(builds)}
	baseline := make([]float64, len(builds))
	for _, s := range supports {
		row := Row{Support: s, Cells: make([]Cell, len(builds))}
		for j, b := range builds {
			sum, err := r.Run(ctx, s, b)
			if err != nil {
				return Table{}, err
			}
			row.Cells[j].Summary = sum
			if s == config.SupportNone {
				baseline[j] = sum.Stats.Mean
			}
		}
		t.Rows = append(t.Rows, row)
	}

	for i := range t.Rows {
		for j := range t.Rows[i].Cells {
			t.Rows[i].Cells[j].Uplift = uplift(t.Rows[i].Cells[j].Summary.Stats.Mean, baseline[j])
		}
	}
	sort.SliceStable(t.Rows, func(a, b int) bool {
		return t.Rows[a].Cells[0].Summary.Stats.Mean > t.Rows[b].Cells[0].Summary.Stats.Mean
	})
	return t, nil
}

func uplift(mean, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return mean/base - 1
}
