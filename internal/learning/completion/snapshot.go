package completion

import "math"

// Snapshot is the derived completion of one student in one course.
type Snapshot struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// NewSnapshot clamps completed into [0, total] so Percent always lands in [0, 100].
func NewSnapshot(completed, total int) Snapshot {
	if total < 0 {
		total = 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return Snapshot{Completed: completed, Total: total, Percent: Percent(completed, total)}
}

// Percent is round(100*completed/total), 0 for an empty course.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return Round(100 * float64(completed) / float64(total))
}

// Round rounds half up, e.g. 66.5 -> 67 and -2.5 -> -2.
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Mean is the rounded mean of percents, 0 when empty.
func Mean(percents []int) int {
	if len(percents) == 0 {
		return 0
	}
	sum := 0
	for _, p := range percents {
		sum += p
	}
	return Round(float64(sum) / float64(len(percents)))
}

// CohortSummary buckets the students of one course by completion.
type CohortSummary struct {
	TotalStudents   int `json:"total_students"`
	Completed       int `json:"completed"`
	InProgress      int `json:"in_progress"`
	NotStarted      int `json:"not_started"`
	AverageProgress int `json:"average_progress"`
}

// Summarize places each percent in exactly one bucket. No students yields explicit zeros.
func Summarize(percents []int) CohortSummary {
	out := CohortSummary{TotalStudents: len(percents)}
	for _, p := range percents {
		switch {
		case p >= 100:
			out.Completed++
		case p <= 0:
			out.NotStarted++
		default:
			out.InProgress++
		}
	}
	out.AverageProgress = Mean(percents)
	return out
}
