package aggregate

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/survey-trends/internal/survey"
)

var (
	years = []string{"2016", "2017"}
	techs = []string{"react", "angular"}
)

func records(recs ...survey.Reduced) func(func(survey.Reduced, error) bool) {
	return func(yield func(survey.Reduced, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func vote(year survey.Year, react, angular bool) survey.Reduced {
	return survey.Reduced{Year: year, Votes: map[string]bool{"react": react, "angular": angular}}
}

func TestFoldWorkedExample(t *testing.T) {
	t.Parallel()

	var snapshots []*Table
	agg := New(years, techs, OnComplete(func(tbl *Table) { snapshots = append(snapshots, tbl) }))

	doc, err := agg.Fold(records(
		vote(2016, true, false),
		vote(2016, false, false),
		vote(2017, true, true),
	))
	require.NoError(t, err)
	require.JSONEq(t, `{"2016":{"react":1,"angular":0,"total":1},"2017":{"react":1,"angular":1,"total":2}}`, string(doc))
	require.Equal(t, `{"2016":{"react":1,"angular":0,"total":1},"2017":{"react":1,"angular":1,"total":2}}`, string(doc))

	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].Count("2016", "react"))
	assert.Equal(t, 2, snapshots[0].Total("2017"))
	assert.Equal(t, int64(3), agg.Records())
}

func TestFoldZeroRecords(t *testing.T) {
	t.Parallel()

	agg := New(years, techs)
	doc, err := agg.Fold(records())
	require.NoError(t, err)

	var got map[string]map[string]int
	require.NoError(t, json.Unmarshal(doc, &got))
	for _, y := range years {
		require.Equal(t, map[string]int{"react": 0, "angular": 0, "total": 0}, got[y])
	}
}

func TestFoldIgnoresUnconfiguredYears(t *testing.T) {
	t.Parallel()

	agg := New(years, techs)
	doc, err := agg.Fold(records(vote(2015, true, true), vote(0, true, false), vote(2017, false, true)))
	require.NoError(t, err)
	require.JSONEq(t, `{"2016":{"react":0,"angular":0,"total":0},"2017":{"react":0,"angular":1,"total":1}}`, string(doc))
	require.Equal(t, int64(2), agg.Unclassified())
}

func TestFoldErrorSkipsCompletion(t *testing.T) {
	t.Parallel()

	boom := errors.New("parse failed")
	fired := false
	agg := New(years, techs, OnComplete(func(*Table) { fired = true }))
	src := func(yield func(survey.Reduced, error) bool) {
		if !yield(vote(2016, true, true), nil) {
			return
		}
		yield(survey.Reduced{}, boom)
	}

	doc, err := agg.Fold(src)
	require.ErrorIs(t, err, boom)
	require.Nil(t, doc)
	require.False(t, fired)
}

func TestFoldOrderIndependent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	var recs []survey.Reduced
	for i := 0; i < 200; i++ {
		recs = append(recs, vote(survey.Year(2016+rng.Intn(2)), rng.Intn(2) == 0, rng.Intn(3) == 0))
	}
	first, err := New(years, techs).Fold(records(recs...))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		shuffled := append([]survey.Reduced(nil), recs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := New(years, techs).Fold(records(shuffled...))
		require.NoError(t, err)
		require.Equal(t, string(first), string(got))
	}
}

func TestTotalMatchesSum(t *testing.T) {
	t.Parallel()

	agg := New(years, techs)
	for i := 0; i < 50; i++ {
		agg.Add(vote(survey.Year(2016+i%2), i%3 == 0, i%5 == 0))
	}
	snap := agg.Snapshot()
	for _, y := range snap.Years() {
		row, ok := snap.Row(y)
		require.True(t, ok)
		sum := 0
		for _, k := range snap.Technologies() {
			sum += row[k]
		}
		require.Equal(t, sum, snap.Total(y))
	}
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()

	agg := New(years, techs)
	agg.Add(vote(2016, true, false))
	snap := agg.Snapshot()
	snap.add("2016", "react", 10)

	require.Equal(t, 1, agg.Snapshot().Count("2016", "react"))
}

func TestTotalIgnoresTotalKey(t *testing.T) {
	t.Parallel()
	require.Equal(t, 5, Total(Counters{"react": 2, "angular": 3, TotalKey: 99}))
}
