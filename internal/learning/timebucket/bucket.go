package timebucket

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Week  Granularity = "week"
	Month Granularity = "month"
)

const (
	WeeklyBuckets        = 6
	MonthlyBuckets       = 6
	ActiveLearnerBuckets = 9
)

func ParseGranularity(raw string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(raw))) {
	case "", Week, "weekly":
		return Week, nil
	case Month, "monthly":
		return Month, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", raw)
	}
}

// DefaultCount is the number of buckets a trend view shows for g.
func DefaultCount(g Granularity) int {
	if g == Month {
		return MonthlyBuckets
	}
	return WeeklyBuckets
}

// Bucket is the half-open interval [Start, End).
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// StartOf truncates t (in UTC) to the start of its week (Monday 00:00) or month.
func StartOf(g Granularity, t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if g == Month {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	// Sunday is 0; shift so Monday is the first day.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func next(g Granularity, start time.Time) time.Time {
	if g == Month {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 7)
}

func Label(g Granularity, start time.Time) string {
	if g == Month {
		return start.Format("2006-01")
	}
	return start.Format("2006-01-02")
}

// Buckets returns exactly n consecutive buckets, oldest first, the last one containing now.
func Buckets(g Granularity, now time.Time, n int) []Bucket {
	if n <= 0 {
		return []Bucket{}
	}
	out := make([]Bucket, n)
	start := StartOf(g, now)
	for i := n - 1; i >= 0; i-- {
		out[i] = Bucket{Label: Label(g, start), Start: start, End: next(g, start)}
		if g == Month {
			start = start.AddDate(0, -1, 0)
		} else {
			start = start.AddDate(0, 0, -7)
		}
	}
	return out
}

// Index finds the bucket holding t, or -1.
func Index(buckets []Bucket, t time.Time) int {
	t = t.UTC()
	for i, b := range buckets {
		if b.Contains(t) {
			return i
		}
	}
	return -1
}

// Window is the overall span covered by buckets.
func Window(buckets []Bucket) (time.Time, time.Time) {
	if len(buckets) == 0 {
		return time.Time{}, time.Time{}
	}
	return buckets[0].Start, buckets[len(buckets)-1].End
}
