package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshot(t *testing.T) {
	cases := []struct {
		name                 string
		completed, total     int
		wantCompleted, wantP int
	}{
		{name: "empty course", completed: 0, total: 0, wantCompleted: 0, wantP: 0},
		{name: "two of three", completed: 2, total: 3, wantCompleted: 2, wantP: 67},
		{name: "one of three", completed: 1, total: 3, wantCompleted: 1, wantP: 33},
		{name: "all", completed: 3, total: 3, wantCompleted: 3, wantP: 100},
		{name: "clamped above", completed: 5, total: 3, wantCompleted: 3, wantP: 100},
		{name: "clamped below", completed: -1, total: 4, wantCompleted: 0, wantP: 0},
		{name: "half rounds up", completed: 1, total: 8, wantCompleted: 1, wantP: 13},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSnapshot(tc.completed, tc.total)
			assert.Equal(t, tc.wantCompleted, s.Completed)
			assert.Equal(t, tc.wantP, s.Percent)
			assert.GreaterOrEqual(t, s.Percent, 0)
			assert.LessOrEqual(t, s.Percent, 100)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 67, Round(66.5))
	assert.Equal(t, 66, Round(66.49))
	assert.Equal(t, -2, Round(-2.5))
	assert.Equal(t, 0, Round(0))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, CohortSummary{}, Summarize(nil))

	got := Summarize([]int{100, 0, 50, 33})
	assert.Equal(t, CohortSummary{
		TotalStudents:   4,
		Completed:       1,
		InProgress:      2,
		NotStarted:      1,
		AverageProgress: 46,
	}, got)
	assert.Equal(t, got.TotalStudents, got.Completed+got.InProgress+got.NotStarted)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0, Mean(nil))
	assert.Equal(t, 84, Mean([]int{67, 100}))
}
