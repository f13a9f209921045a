// Package aggregate folds reduced survey records into a year by technology
// table of "would use" counts.
package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TotalKey is the derived per-year field written next to the technology counts.
const TotalKey = "total"

// Counters maps a technology key to its count for one year.
type Counters map[string]int

// Total sums every technology counter. It is recomputed on each call and
// ignores a stray TotalKey entry.
func Total(c Counters) int {
	sum := 0
	for key, n := range c {
		if key == TotalKey {
			continue
		}
		sum += n
	}
	return sum
}

// Table is the year-keyed aggregate. Years and technologies keep their
// configured order so the serialized document is stable.
type Table struct {
	years []string
	techs []string
	rows  map[string]Counters
}

// NewTable returns a table with a zero counter for every year and technology.
func NewTable(years, techs []string) *Table {
	t := &Table{
		years: append([]string(nil), years...),
		techs: append([]string(nil), techs...),
		rows:  make(map[string]Counters, len(years)),
	}
	for _, y := range t.years {
		row := make(Counters, len(t.techs))
		for _, k := range t.techs {
			row[k] = 0
		}
		t.rows[y] = row
	}
	return t
}

// Years returns the configured years in order.
func (t *Table) Years() []string {
	return append([]string(nil), t.years...)
}

// Technologies returns the tracked technology keys in order.
func (t *Table) Technologies() []string {
	return append([]string(nil), t.techs...)
}

// Row returns a copy of the counters for year and whether the year exists.
func (t *Table) Row(year string) (Counters, bool) {
	row, ok := t.rows[year]
	if !ok {
		return nil, false
	}
	out := make(Counters, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Count returns a single cell, zero when the year or technology is unknown.
func (t *Table) Count(year, tech string) int {
	return t.rows[year][tech]
}

// Total returns the derived total for year.
func (t *Table) Total(year string) int {
	return Total(t.rows[year])
}

// Clone returns a deep copy that shares nothing with t.
func (t *Table) Clone() *Table {
	c := NewTable(t.years, t.techs)
	for y, row := range t.rows {
		for k, v := range row {
			c.rows[y][k] = v
		}
	}
	return c
}

// add increments a cell; callers guarantee the year exists.
func (t *Table) add(year, tech string, n int) {
	t.rows[year][tech] += n
}

// MarshalJSON writes {"<year>":{"<tech>":n,...,"total":n},...} keeping the
// configured order of years and technologies.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, y := range t.years {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, y); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		row := t.rows[y]
		for _, k := range t.techs {
			if err := writeKey(&buf, k); err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, "%d,", row[k])
		}
		buf.WriteString(`"` + TotalKey + `":`)
		fmt.Fprintf(&buf, "%d}", Total(row))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", key, err)
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
