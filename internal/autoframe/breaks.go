// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package autoframe

import (
	"sort"
	"time"

	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// timelineGap is one idle slot between two consecutive work entries on the
// duty's timeline, with the locations bounding it — needed to evaluate
// commute-to/from-site durations when attempting a break there.
type timelineGap struct {
	start, end     time.Time
	fromLoc, toLoc string
}

// planBreaks implements spec.md §4.4.5: it walks the duty's work timeline,
// and at each idle gap decides whether a break is required (continuous
// work would otherwise exceed the limit), attempting a regular break, then
// a short break, then a raw-gap break, before giving up, leaving the gap
// unplanned and recording NO_BREAK_WINDOW. A final pass greedily consumes remaining gaps,
// largest first, if total work still exceeds maxWorkMinutes.
func planBreaks(duty *model.Duty, rc *resolve.ResolvedConfig, idx *store.Index, depot *store.HomeDepot, startBoundary, endBoundary *model.Activity, commutes []*model.Activity) ([]*model.Activity, []conflict.Code, []string) {
	entries := make([]*model.Activity, 0, len(duty.Payload())+len(commutes)+2)
	entries = append(entries, startBoundary, endBoundary)
	entries = append(entries, duty.Payload()...)
	entries = append(entries, commutes...)
	model.SortActivitiesByStart(entries)

	var gaps []timelineGap
	for i := 0; i+1 < len(entries); i++ {
		cur, next := entries[i], entries[i+1]
		curEnd := cur.EndOrDefault()
		if !curEnd.Before(next.Start) {
			continue
		}
		gaps = append(gaps, timelineGap{
			start:   curEnd,
			end:     next.Start,
			fromLoc: cur.EndLocation(),
			toLoc:   next.StartLocation(),
		})
	}

	maxContinuous := time.Duration(rc.MaxContinuousWorkMinutes) * time.Minute
	minBreak := time.Duration(rc.MinBreakMinutes) * time.Minute
	minShortBreak := time.Duration(rc.MinShortBreakMinutes) * time.Minute

	var planned []*model.Activity
	used := make([]bool, len(gaps))
	var codes []conflict.Code

	lastBreakEnd := startBoundary.Start
	ordinal := 0
	for i, gap := range gaps {
		sinceLastBreak := gap.start.Sub(lastBreakEnd)
		if sinceLastBreak < maxContinuous {
			continue
		}
		act, _, ok := attemptBreak(duty, gap, depot, idx, minBreak, minShortBreak, ordinal)
		if !ok {
			codes = append(codes, conflict.CodeNoBreakWindow)
			continue
		}
		planned = append(planned, act)
		used[i] = true
		ordinal++
		lastBreakEnd = act.EndOrDefault()
	}

	totalSpan := endBoundary.EndOrDefault().Sub(startBoundary.Start)
	workMs := totalSpan - plannedBreakDuration(planned)
	maxWork := time.Duration(rc.MaxWorkMinutes) * time.Minute

	if workMs > maxWork {
		remaining := make([]int, 0, len(gaps))
		for i, used := range used {
			if !used {
				remaining = append(remaining, i)
			}
		}
		sort.Slice(remaining, func(a, b int) bool {
			da := gaps[remaining[a]].end.Sub(gaps[remaining[a]].start)
			db := gaps[remaining[b]].end.Sub(gaps[remaining[b]].start)
			return da > db
		})
		for _, gi := range remaining {
			if workMs <= maxWork {
				break
			}
			gap := gaps[gi]
			act, _, ok := attemptBreak(duty, gap, depot, idx, minBreak, minShortBreak, ordinal)
			if !ok {
				continue
			}
			planned = append(planned, act)
			ordinal++
			workMs -= act.EndOrDefault().Sub(act.Start)
		}
	}

	if workMs > maxWork {
		codes = append(codes, conflict.CodeMaxWork)
	}
	if totalSpan > time.Duration(rc.MaxDutySpanMinutes)*time.Minute {
		codes = append(codes, conflict.CodeMaxDutySpan)
	}

	model.SortActivitiesByStart(planned)
	return planned, codes, nil
}

// attemptBreak implements the three-tier fallback from spec.md §4.4.5:
// regular break at a depot breakSiteId, then short break, then the raw gap
// itself when no site sets are configured.
func attemptBreak(duty *model.Duty, gap timelineGap, depot *store.HomeDepot, idx *store.Index, minBreak, minShortBreak time.Duration, ordinal int) (*model.Activity, bool, bool) {
	if depot != nil && len(depot.BreakSiteIDs) > 0 {
		if act, ok := attemptSiteBreak(duty, gap, depot.BreakSiteIDs, idx, minBreak, false, ordinal); ok {
			return act, false, true
		}
	}
	if depot != nil && len(depot.ShortBreakSiteIDs) > 0 {
		if act, ok := attemptSiteBreak(duty, gap, depot.ShortBreakSiteIDs, idx, minShortBreak, true, ordinal); ok {
			return act, true, true
		}
	}
	if depot == nil || (len(depot.BreakSiteIDs) == 0 && len(depot.ShortBreakSiteIDs) == 0) {
		if gap.end.Sub(gap.start) >= minBreak {
			return &model.Activity{
				ID:          model.BreakID(false, duty.ServiceID, ordinal),
				Start:       gap.start,
				End:         timePtr(gap.end),
				From:        gap.fromLoc,
				To:          gap.toLoc,
				ServiceID:   duty.ServiceID.String(),
				ServiceRole: model.ServiceRoleSegment,
				Attributes:  &model.Attributes{},
			}, false, true
		}
	}
	return nil, false, false
}

// attemptSiteBreak picks the site in siteIDs minimizing commute-in +
// commute-out walk time, and requires the remaining break duration to meet
// minDuration (spec.md §4.4.5 step 1/2).
func attemptSiteBreak(duty *model.Duty, gap timelineGap, siteIDs map[string]struct{}, idx *store.Index, minDuration time.Duration, short bool, ordinal int) (*model.Activity, bool) {
	gapMs := gap.end.Sub(gap.start)

	var bestSite string
	bestCommute := time.Duration(-1)
	for _, siteID := range sortedKeys(siteIDs) {
		var in, out time.Duration
		if gap.fromLoc != "" {
			if minutes, ok := idx.WalkTimes.Lookup(store.OPNode(gap.fromLoc), store.PersonnelSiteNode(siteID)); ok {
				in = time.Duration(minutes) * time.Minute
			}
		}
		if gap.toLoc != "" {
			if minutes, ok := idx.WalkTimes.Lookup(store.PersonnelSiteNode(siteID), store.OPNode(gap.toLoc)); ok {
				out = time.Duration(minutes) * time.Minute
			}
		}
		total := in + out
		if bestCommute == -1 || total < bestCommute {
			bestCommute = total
			bestSite = siteID
		}
	}
	if bestSite == "" {
		bestCommute = 0
	}

	breakDuration := gapMs - bestCommute
	if breakDuration < minDuration {
		return nil, false
	}

	breakStart := gap.start
	if bestCommute > 0 {
		breakStart = gap.start.Add(bestCommute / 2)
	}
	breakEnd := breakStart.Add(breakDuration)

	return &model.Activity{
		ID:          model.BreakID(short, duty.ServiceID, ordinal),
		Start:       breakStart,
		End:         timePtr(breakEnd),
		From:        bestSite,
		To:          bestSite,
		ServiceID:   duty.ServiceID.String(),
		ServiceRole: model.ServiceRoleSegment,
		Attributes:  &model.Attributes{},
	}, true
}

func plannedBreakDuration(acts []*model.Activity) time.Duration {
	var total time.Duration
	for _, a := range acts {
		total += a.EndOrDefault().Sub(a.Start)
	}
	return total
}

func timePtr(t time.Time) *time.Time { return &t }
