// Package chart turns an aggregate table into per-technology line series
// for presentation clients.
package chart

import (
	"github.com/JakeFAU/survey-trends/internal/aggregate"
	"github.com/JakeFAU/survey-trends/internal/survey"
)

// Style holds the line colour as an RGB triple.
type Style struct {
	Line []int `json:"line,omitempty"`
}

// Series is one technology's line: Y[i] is the count for X[i].
type Series struct {
	Title string   `json:"title"`
	X     []string `json:"x"`
	Y     []int    `json:"y"`
	Style Style    `json:"style"`
}

// Build returns one series per technology in configured order. Every series
// starts at zero for each year and takes its values from tbl; the derived
// total is not charted. A nil table yields the all-zero series.
func Build(techs []survey.Technology, years []string, tbl *aggregate.Table) []Series {
	out := make([]Series, 0, len(techs))
	for _, t := range techs {
		title := t.Title
		if title == "" {
			title = t.Key
		}
		s := Series{
			Title: title,
			X:     append([]string(nil), years...),
			Y:     make([]int, len(years)),
			Style: Style{Line: append([]int(nil), t.Line...)},
		}
		if tbl != nil {
			for i, y := range years {
				s.Y[i] = tbl.Count(y, t.Key)
			}
		}
		out = append(out, s)
	}
	return out
}
