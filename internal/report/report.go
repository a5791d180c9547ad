// Package report renders sweep results for a terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/teamsweep/internal/teamset"
)

// maxIDWidth truncates team set ids in the classification table.
const maxIDWidth = 36

// Printer writes reports to w.
type Printer struct {
	w       io.Writer
	colored bool
}

// NewPrinter creates a printer. When colored is false no escape codes are
// written.
func NewPrinter(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, colored: colored}
}

func (p *Printer) paint(c color.Color, s string) string {
	if !p.colored {
		return s
	}
	return c.Sprint(s)
}

func (p *Printer) heading(title string) {
	fmt.Fprintf(p.w, "\n%s\n\n", p.paint(color.Bold, "=== "+title+" ==="))
}

// Classifications prints one line per candidate with its verdict.
func (p *Printer) Classifications(cls []teamset.Classification) {
	p.heading("Team Set Classification")
	if len(cls) == 0 {
		fmt.Fprintln(p.w, "  No team set candidates.")
		return
	}

	header := []string{"TEAM SET", "VERDICT", "REASON", "REFERENCED BY", "PROBES"}
	rows := make([][]string, 0, len(cls))
	for _, c := range cls {
		where := ""
		if c.Table != "" {
			where = c.Table + "." + c.Column
		}
		rows = append(rows, []string{
			runewidth.Truncate(c.ID, maxIDWidth, "…"),
			verdict(c),
			string(c.Reason),
			where,
			strconv.Itoa(c.Probes),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	p.row(header, widths, func(i int, s string) string { return p.paint(color.Bold, s) })
	for _, r := range rows {
		kept := r[1] == "KEEP"
		p.row(r, widths, func(i int, s string) string {
			if i != 1 {
				return s
			}
			if kept {
				return p.paint(color.Green, s)
			}
			return p.paint(color.Red, s)
		})
	}
}

// row pads every cell to its column width before styling, so escape codes
// do not affect alignment.
func (p *Printer) row(cells []string, widths []int, style func(int, string) string) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		padded := cell
		if i < len(cells)-1 {
			padded = runewidth.FillRight(cell, widths[i])
		}
		parts[i] = style(i, padded)
	}
	fmt.Fprintf(p.w, "  %s\n", strings.TrimRight(strings.Join(parts, "  "), " "))
}

func verdict(c teamset.Classification) string {
	if c.Kept() {
		return "KEEP"
	}
	return "SWEEP"
}

// Summary prints counts for a scan or a sweep. updated is nil for a scan.
func (p *Printer) Summary(f *teamset.Findings, tables []string, stamp string, updated map[string]int64) {
	p.heading("Summary")

	reasons := make(map[teamset.Reason]int)
	for _, c := range f.Classifications {
		reasons[c.Reason]++
	}

	fmt.Fprintf(p.w, "  Referencing tables: %d\n", len(tables))
	fmt.Fprintf(p.w, "  Candidates: %d\n", len(f.Candidates))
	for _, r := range []teamset.Reason{teamset.ReasonTeam, teamset.ReasonLinked, teamset.ReasonReference} {
		fmt.Fprintf(p.w, "    kept (%s): %d\n", r, reasons[r])
	}
	fmt.Fprintf(p.w, "  Unused: %s\n", p.paint(color.Yellow, strconv.Itoa(len(f.Unused))))
	if len(f.Empty) > 0 {
		fmt.Fprintf(p.w, "  Empty ids (not written): %d\n", len(f.Empty))
	}

	if updated == nil {
		fmt.Fprintln(p.w, "  Mode: scan (no changes made)")
		return
	}

	fmt.Fprintf(p.w, "  Run stamp: %s\n", stamp)
	names := make([]string, 0, len(updated))
	for name := range updated {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(p.w, "  Rows soft-deleted in %s: %d\n", name, updated[name])
	}
}

// Tables prints the discovered referencing tables.
func (p *Printer) Tables(tables []string) {
	p.heading("Tables Referencing Team Sets")
	if len(tables) == 0 {
		fmt.Fprintln(p.w, "  None found.")
		return
	}
	for i, t := range tables {
		fmt.Fprintf(p.w, "  %d. %s\n", i+1, t)
	}
}

// Statements prints a batch of SQL statements under title.
func (p *Printer) Statements(title string, stmts []string) {
	p.heading(title)
	for _, s := range stmts {
		fmt.Fprintf(p.w, "%s\n", p.paint(color.Cyan, s+";"))
	}
}

// WriteStatements writes stmts as a plain SQL script.
func WriteStatements(w io.Writer, title string, stmts []string) error {
	if _, err := fmt.Fprintf(w, "-- %s\n", title); err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := fmt.Fprintf(w, "%s;\n", s); err != nil {
			return err
		}
	}
	return nil
}
