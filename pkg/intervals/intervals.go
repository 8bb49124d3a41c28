// Package intervals maps interview datetimes to concrete reminder times.
package intervals

import (
	"strings"
	"time"
)

// Interval is a named lead time at which a reminder fires relative to a
// round's datetime.
type Interval struct {
	Label string
	Lead  time.Duration
}

// Canonical interval labels.
const (
	OneDay = "1day"
	SixHrs = "6hrs"
	OneHr  = "1hr"
	Exact  = "exact"
)

// Defaults returns the canonical interval set, ordered farthest-out first.
func Defaults() []Interval {
	return []Interval{
		{Label: OneDay, Lead: 24 * time.Hour},
		{Label: SixHrs, Lead: 6 * time.Hour},
		{Label: OneHr, Lead: time.Hour},
		{Label: Exact, Lead: 0},
	}
}

// Select filters the canonical set down to the given labels, preserving
// canonical order. Unknown labels are ignored. An empty label list selects
// nothing.
func Select(labels []string) []Interval {
	if len(labels) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		wanted[strings.ToLower(strings.TrimSpace(label))] = struct{}{}
	}
	var out []Interval
	for _, iv := range Defaults() {
		if _, ok := wanted[iv.Label]; ok {
			out = append(out, iv)
		}
	}
	return out
}

// FireTimes computes fire times for every interval that still lies in the
// future. When interviewAt is not strictly after now the interview already
// started or passed and no reminder is meaningful, so the result is empty.
// Pure function: no I/O, deterministic for a given now.
func FireTimes(interviewAt, now time.Time, ivs []Interval) map[string]time.Time {
	out := make(map[string]time.Time, len(ivs))
	if !interviewAt.After(now) {
		return out
	}
	for _, iv := range ivs {
		fireAt := interviewAt.Add(-iv.Lead)
		if fireAt.After(now) {
			out[iv.Label] = fireAt
		}
	}
	return out
}
