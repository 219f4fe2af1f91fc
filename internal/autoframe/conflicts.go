// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package autoframe

import (
	"time"

	"github.com/kron12345/coreplanx/internal/interval"
	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// emitConflicts computes the per-duty worktime and location/capacity codes
// from spec.md §4.4.6. Home-depot codes are produced separately by the
// depot/commute stages and merged by the caller; this function owns
// CAPACITY_OVERLAP, LOCATION_SEQUENCE, MAX_DUTY_SPAN, and MAX_CONTINUOUS
// (raised whenever the longest continuous stretch exceeds the limit).
// MAX_WORK and NO_BREAK_WINDOW come from planBreaks.
func emitConflicts(duty *model.Duty, rc *resolve.ResolvedConfig, allWork []*model.Activity, breaks []*model.Activity, windowStart, windowEnd time.Time) ([]conflict.Code, map[string][]string) {
	var codes []conflict.Code
	details := map[string][]string{}

	payload := duty.Payload()

	for i := 0; i < len(payload); i++ {
		for j := i + 1; j < len(payload); j++ {
			a, b := payload[i], payload[j]
			ivA := interval.Interval{StartMs: a.Start.UnixMilli(), EndMs: a.EndOrDefault().UnixMilli()}
			ivB := interval.Interval{StartMs: b.Start.UnixMilli(), EndMs: b.EndOrDefault().UnixMilli()}
			if ivA.Overlaps(ivB) {
				codes = append(codes, conflict.CodeCapacityOverlap)
				details[string(conflict.CodeCapacityOverlap)] = append(details[string(conflict.CodeCapacityOverlap)], a.ID+" overlaps "+b.ID)
			}
		}
	}

	for i := 0; i+1 < len(payload); i++ {
		cur, next := payload[i], payload[i+1]
		if !optedIntoLocationConflicts(cur) || !optedIntoLocationConflicts(next) {
			continue
		}
		if cur.To != "" && next.From != "" && cur.To != next.From {
			codes = append(codes, conflict.CodeLocationSequence)
			details[string(conflict.CodeLocationSequence)] = append(details[string(conflict.CodeLocationSequence)], cur.ID+" -> "+next.ID)
		}
	}

	span := windowEnd.Sub(windowStart)
	if span > time.Duration(rc.MaxDutySpanMinutes)*time.Minute {
		codes = append(codes, conflict.CodeMaxDutySpan)
	}

	continuous := longestContinuousSegment(allWork, breaks)
	if continuous > time.Duration(rc.MaxContinuousWorkMinutes)*time.Minute {
		codes = append(codes, conflict.CodeMaxContinuous)
	}

	return codes, details
}

func optedIntoLocationConflicts(act *model.Activity) bool {
	return act.Attributes != nil && act.Attributes.ConsiderLocationConflicts != nil && *act.Attributes.ConsiderLocationConflicts
}

// longestContinuousSegment returns the longest stretch of work time not
// interrupted by a qualifying break, over allWork (boundaries/payload/
// commutes) with the planned breaks carved out. Idle time between work
// activities does not end a stretch; only a planned break does.
func longestContinuousSegment(allWork []*model.Activity, breaks []*model.Activity) time.Duration {
	ivs := make([]interval.Interval, 0, len(allWork))
	for _, a := range allWork {
		ivs = append(ivs, interval.Interval{StartMs: a.Start.UnixMilli(), EndMs: a.EndOrDefault().UnixMilli()})
	}
	merged := interval.Merge(ivs)
	if len(merged) == 0 {
		return 0
	}

	var breakIvs []interval.Interval
	for _, b := range breaks {
		breakIvs = append(breakIvs, interval.Interval{StartMs: b.Start.UnixMilli(), EndMs: b.EndOrDefault().UnixMilli()})
	}

	var longest time.Duration
	for _, g := range interval.Gaps(merged[0].StartMs, merged[len(merged)-1].EndMs, breakIvs) {
		d := time.Duration(g.DurationMs()) * time.Millisecond
		if d > longest {
			longest = d
		}
	}
	return longest
}
