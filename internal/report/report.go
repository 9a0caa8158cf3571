// Package report renders experiment tables for people and for tools.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"xfactorlab/internal/combat"
	"xfactorlab/internal/experiment"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

type Options struct {
	Format  string
	Locale  string
	PerTurn bool
}

// Printer returns a number printer for locale, falling back to English.
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func Write(w io.Writer, t experiment.Table, opt Options) error {
	switch opt.Format {
	case FormatJSON:
		b := combat.MarshalPretty(t)
		_, err := w.Write(append(b, '\n'))
		return err
	case FormatTable, "":
		return writeTable(w, t, opt)
	}
	return fmt.Errorf("unknown report format %q", opt.Format)
}

// Percent formats a damage coefficient as a percentage of base attack.
func Percent(p *message.Printer, v float64) string {
	return p.Sprintf("%.2f%%", v*100)
}

// Uplift formats a relative change with an explicit sign.
func Uplift(p *message.Printer, v float64) string {
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	return p.Sprintf("%s%.1f%%", sign, v*100)
}

func writeTable(w io.Writer, t experiment.Table, opt Options) error {
	p := Printer(opt.Locale)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(t.Rows) > 0 && len(t.Rows[0].Cells) > 0 {
		s := t.Rows[0].Cells[0].Summary
		fmt.Fprintf(tw, "profile %s  runs %s  seed %d  turns %d\n", t.Profile, p.Sprintf("%d", s.Runs), s.Seed, s.Turns)
	}

	head := []string{"support"}
	for _, b := range t.Builds {
		head = append(head, b, "±se", "uplift")
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	for _, row := range t.Rows {
		cols := []string{row.Support}
		for _, c := range row.Cells {
			cols = append(cols,
				Percent(p, c.Summary.Stats.Mean),
				Percent(p, c.Summary.Stats.StdErr),
				Uplift(p, c.Uplift),
			)
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}

	if opt.PerTurn {
		for j, b := range t.Builds {
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "per turn: "+b)
			turns := 0
			if len(t.Rows) > 0 {
				turns = len(t.Rows[0].Cells[j].Summary.PerTurn)
			}
			head := []string{"support"}
			for i := range turns {
				head = append(head, fmt.Sprintf("T%d", i+1))
			}
			fmt.Fprintln(tw, strings.Join(head, "\t"))
			for _, row := range t.Rows {
				cols := []string{row.Support}
				for _, v := range row.Cells[j].Summary.PerTurn {
					cols = append(cols, Percent(p, v))
				}
				fmt.Fprintln(tw, strings.Join(cols, "\t"))
			}
		}
	}
	return tw.Flush()
}
