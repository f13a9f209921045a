package chart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/survey-trends/internal/aggregate"
	"github.com/JakeFAU/survey-trends/internal/survey"
)

func TestBuildScattersCountsByYearPosition(t *testing.T) {
	t.Parallel()

	techs := []survey.Technology{
		{Key: "react", Title: "React", Line: []int{97, 218, 251}},
		{Key: "angular", Line: []int{170, 42, 44}},
	}
	years := []string{"2016", "2017", "2018"}
	agg := aggregate.New(years, survey.Keys(techs))
	agg.Add(survey.Reduced{Year: 2017, Votes: map[string]bool{"react": true, "angular": true}})
	agg.Add(survey.Reduced{Year: 2018, Votes: map[string]bool{"react": true}})
	agg.Add(survey.Reduced{Year: 2018, Votes: map[string]bool{"react": true}})

	series := Build(techs, years, agg.Snapshot())
	require.Len(t, series, 2)
	require.Equal(t, "React", series[0].Title)
	require.Equal(t, []int{0, 1, 2}, series[0].Y)
	require.Equal(t, years, series[0].X)
	require.Equal(t, []int{97, 218, 251}, series[0].Style.Line)
	require.Equal(t, "angular", series[1].Title)
	require.Equal(t, []int{0, 1, 0}, series[1].Y)
}

func TestBuildWithoutAggregate(t *testing.T) {
	t.Parallel()

	series := Build([]survey.Technology{{Key: "ember"}}, []string{"2016", "2017"}, nil)
	require.Equal(t, []int{0, 0}, series[0].Y)
}
