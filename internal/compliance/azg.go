// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package compliance

import (
	"sort"
	"time"

	"github.com/kron12345/coreplanx/internal/interval"
	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// dutySnapshot is the per-duty AZG view spec.md §4.5 describes: span,
// work time (span minus merged break time), and whether any work segment
// touches the 00:00–04:00 UTC night window of any calendar day it covers.
type dutySnapshot struct {
	duty            *model.Duty
	dayStart        time.Time
	dutySpanMinutes int
	workMinutes     int
	hasNightWork    bool
	breaks          []interval.Interval
}

// AZGCompliance evaluates the rolling-window labor-law rules from
// spec.md §4.5 per owner, over every visible duty.
func AZGCompliance(duties []*model.Duty, rc *resolve.ResolvedConfig) {
	byOwner := make(map[string][]*dutySnapshot)
	for _, d := range duties {
		snap := buildSnapshot(d)
		byOwner[d.Owner.ResourceID] = append(byOwner[d.Owner.ResourceID], snap)
	}

	for _, snaps := range byOwner {
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].dayStart.Before(snaps[j].dayStart) })
		kind := snaps[0].duty.Owner.Group()

		for _, s := range snaps {
			evaluateBreakRules(s, rc, kind)
			evaluateBufferRules(s, rc, kind)
		}
		evaluateRestMin(snaps, rc, kind)
		evaluateNightStreak(snaps, rc, kind)
		evaluateNight28D(snaps, rc, kind)
		evaluateWorkAvg7D(snaps, rc, kind)
		evaluateWorkAvg365D(snaps, rc, kind)
		evaluateDutySpanAvg28D(snaps, rc, kind)
		evaluateRestAvg28D(snaps, rc, kind)
		evaluateRestYearBudgets(snaps, rc, kind)
	}
}

// timetableYearStart returns the first Sunday on or after 10 December of
// year, the boundary spec.md §4.5 anchors the rest-day/Sunday-rest yearly
// budgets to.
func timetableYearStart(year int) time.Time {
	d := time.Date(year, time.December, 10, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// timetableYearBounds returns [start, end] of the timetable year named by
// its starting calendar year (e.g. the year starting December of year).
func timetableYearBounds(year int) (time.Time, time.Time) {
	start := timetableYearStart(year)
	end := timetableYearStart(year + 1).AddDate(0, 0, -1)
	return start, end
}

func timetableYearFor(d time.Time) int {
	start := timetableYearStart(d.Year())
	if d.Before(start) {
		return d.Year() - 1
	}
	return d.Year()
}

// evaluateRestYearBudgets buckets duties by timetable year and checks the
// minimum count of rest days (and rest Sundays) spec.md §4.5 requires per
// year, annotating every duty in a year that falls short.
func evaluateRestYearBudgets(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	restDaysRule := rc.AZG.RestDaysYearMin
	restSundaysRule := rc.AZG.RestSundaysYearMin
	if !restDaysRule.Applies(kind) && !restSundaysRule.Applies(kind) {
		return
	}

	byYear := make(map[int][]*dutySnapshot)
	for _, s := range snaps {
		y := timetableYearFor(s.dayStart)
		byYear[y] = append(byYear[y], s)
	}

	extra := make(map[string]struct{})
	for _, md := range restDaysRule.ExtraRestDates {
		extra[md] = struct{}{}
	}

	for year, group := range byYear {
		start, end := timetableYearBounds(year)
		dutyDays := make(map[string]struct{})
		for _, s := range group {
			dutyDays[s.dayStart.Format("2006-01-02")] = struct{}{}
		}

		restDays, restSundays := 0, 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			_, worked := dutyDays[key]
			_, forcedRest := extra[d.Format("01-02")]
			if worked && !forcedRest {
				continue
			}
			restDays++
			if d.Weekday() == time.Sunday {
				restSundays++
			}
		}

		if restDaysRule.Applies(kind) && restDays < restDaysRule.MinRestDays {
			for _, s := range group {
				annotateDutyBoundaries(s.duty, conflict.CodeAZGRestDaysYearMin)
			}
		}
		if restSundaysRule.Applies(kind) && restSundays < restSundaysRule.MinRestSundays {
			for _, s := range group {
				annotateDutyBoundaries(s.duty, conflict.CodeAZGRestSundaysYearMin)
			}
		}
	}
}

func buildSnapshot(d *model.Duty) *dutySnapshot {
	payload := d.Payload()
	var dayStart, dayEnd time.Time
	for i, a := range payload {
		if i == 0 || a.Start.Before(dayStart) {
			dayStart = a.Start
		}
		if e := a.EndOrDefault(); i == 0 || e.After(dayEnd) {
			dayEnd = e
		}
	}
	if len(payload) == 0 && len(d.Activities) > 0 {
		dayStart = d.Activities[0].Start
		dayEnd = dayStart
	}

	var breakIvs []interval.Interval
	var hasNight bool
	for _, a := range payload {
		workIv := interval.Interval{StartMs: a.Start.UnixMilli(), EndMs: a.EndOrDefault().UnixMilli()}
		s := a.Start.UTC()
		for night := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC); night.Before(a.EndOrDefault()); night = night.AddDate(0, 0, 1) {
			nightIv := interval.Interval{StartMs: night.UnixMilli(), EndMs: night.Add(4 * time.Hour).UnixMilli()}
			if workIv.Overlaps(nightIv) {
				hasNight = true
			}
		}
	}

	for _, a := range d.Managed() {
		if a.Attributes != nil && boolAttr(a.Attributes.IsBreak) {
			breakIvs = append(breakIvs, interval.Interval{StartMs: a.Start.UnixMilli(), EndMs: a.EndOrDefault().UnixMilli()})
		}
	}
	merged := interval.Merge(breakIvs)
	spanMs := dayEnd.Sub(dayStart).Milliseconds()
	breakMs := interval.TotalDurationMs(merged)

	return &dutySnapshot{
		duty:            d,
		dayStart:        dayStart,
		dutySpanMinutes: int(spanMs / 60000),
		workMinutes:     int((spanMs - breakMs) / 60000),
		hasNightWork:    hasNight,
		breaks:          merged,
	}
}

func evaluateBreakRules(s *dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	azg := rc.AZG

	if azg.BreakRequired.Applies(kind) && s.workMinutes > azg.BreakRequired.MaxContinuousMinutes && len(s.breaks) == 0 {
		annotateDutyBoundaries(s.duty, conflict.CodeAZGBreakRequired)
	}

	if azg.BreakStandardMin.Applies(kind) && len(s.breaks) > 0 && s.workMinutes > azg.BreakStandardMin.InterruptionThresholdMinutes {
		hasStandard := false
		for _, b := range s.breaks {
			if int(b.DurationMs()/60000) >= azg.BreakStandardMin.StandardMinuteMin {
				hasStandard = true
			}
		}
		if !hasStandard {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGBreakStandardMin)
		}
	}

	if azg.BreakMidpoint.Applies(kind) && s.dutySpanMinutes >= azg.BreakMidpoint.LongDutyThresholdMinutes && len(s.breaks) > 0 {
		midMs := s.dayStart.UnixMilli() + int64(s.dutySpanMinutes)*60000/2
		tol := int64(azg.BreakMidpoint.ToleranceMinutes) * 60000
		covered := false
		for _, b := range s.breaks {
			if midMs >= b.StartMs-tol && midMs <= b.EndMs+tol {
				covered = true
			}
		}
		if !covered {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGBreakMidpoint)
		}
	}

	if azg.BreakMaxCount.Applies(kind) && len(s.breaks) > azg.BreakMaxCount.Max {
		annotateDutyBoundaries(s.duty, conflict.CodeAZGBreakMaxCount)
	}

	if azg.BreakTooShort.Applies(kind) {
		for _, b := range s.breaks {
			if int(b.DurationMs()/60000) < azg.BreakTooShort.MinBreakMinutes {
				annotateDutyBoundaries(s.duty, conflict.CodeAZGBreakTooShort)
				break
			}
		}
	}

	if azg.BreakForbiddenNight.Applies(kind) {
		for _, b := range s.breaks {
			if overlapsForbiddenWindow(b, azg.BreakForbiddenNight.StartHour, azg.BreakForbiddenNight.EndHour) {
				annotateDutyBoundaries(s.duty, conflict.CodeAZGBreakForbiddenNight)
				break
			}
		}
	}
}

// overlapsForbiddenWindow reports whether iv overlaps the daily
// [startHour, endHour) window, wrapping across midnight when
// startHour > endHour (spec.md §4.5).
func overlapsForbiddenWindow(iv interval.Interval, startHour, endHour int) bool {
	day := time.UnixMilli(iv.StartMs).UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	if startHour <= endHour {
		win := interval.Interval{
			StartMs: dayStart.Add(time.Duration(startHour) * time.Hour).UnixMilli(),
			EndMs:   dayStart.Add(time.Duration(endHour) * time.Hour).UnixMilli(),
		}
		return iv.Overlaps(win)
	}
	win1 := interval.Interval{
		StartMs: dayStart.Add(time.Duration(startHour) * time.Hour).UnixMilli(),
		EndMs:   dayStart.Add(24 * time.Hour).UnixMilli(),
	}
	win2 := interval.Interval{
		StartMs: dayStart.UnixMilli(),
		EndMs:   dayStart.Add(time.Duration(endHour) * time.Hour).UnixMilli(),
	}
	return iv.Overlaps(win1) || iv.Overlaps(win2)
}

func evaluateBufferRules(s *dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	azg := rc.AZG
	if azg.WorkExceedBuffer.Applies(kind) && s.workMinutes > azg.WorkExceedBuffer.LimitMinutes+azg.WorkExceedBuffer.BufferMinutes {
		annotateDutyBoundaries(s.duty, conflict.CodeAZGWorkExceedBuffer)
	}
	if azg.DutySpanExceedBuffer.Applies(kind) && s.dutySpanMinutes > azg.DutySpanExceedBuffer.LimitMinutes+azg.DutySpanExceedBuffer.BufferMinutes {
		annotateDutyBoundaries(s.duty, conflict.CodeAZGDutySpanExceedBuffer)
	}
}

func evaluateRestMin(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.RestMin
	if !rule.Applies(kind) {
		return
	}
	for i := 1; i < len(snaps); i++ {
		prevEnd := snaps[i-1].dayStart.Add(time.Duration(snaps[i-1].dutySpanMinutes) * time.Minute)
		rest := snaps[i].dayStart.Sub(prevEnd)
		if rest < time.Duration(rule.MinRestMinutes)*time.Minute {
			annotateDutyBoundaries(snaps[i].duty, conflict.CodeAZGRestMin)
		}
	}
}

func evaluateNightStreak(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.NightStreakMax
	if !rule.Applies(kind) {
		return
	}
	streak := 0
	for _, s := range snaps {
		if s.hasNightWork {
			streak++
		} else {
			streak = 0
		}
		if streak > rule.MaxConsecutiveDays {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGNightStreakMax)
		}
	}
}

func evaluateNight28D(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.Night28DMax
	if !rule.Applies(kind) {
		return
	}
	window := 28 * 24 * time.Hour
	for i, s := range snaps {
		count := 0
		for j := i; j >= 0 && s.dayStart.Sub(snaps[j].dayStart) < window; j-- {
			if snaps[j].hasNightWork {
				count++
			}
		}
		if count > rule.MaxCount {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGNight28DMax)
		}
	}
}

func evaluateWorkAvg7D(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.WorkAvg7D
	if !rule.Applies(kind) {
		return
	}
	window := 7 * 24 * time.Hour
	for i, s := range snaps {
		sum, count := 0, 0
		for j := i; j >= 0 && s.dayStart.Sub(snaps[j].dayStart) < window; j-- {
			sum += snaps[j].workMinutes
			count++
		}
		if count > 0 && sum/count > rule.MaxAverageMinutesPerDay {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGWorkAvg7D)
		}
	}
}

func evaluateWorkAvg365D(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.WorkAvg365D
	if !rule.Applies(kind) || len(snaps) == 0 {
		return
	}
	sum := 0
	for _, s := range snaps {
		sum += s.workMinutes
	}
	avg := sum / len(snaps)
	if avg > rule.MaxAverageMinutesPerDay {
		for _, s := range snaps {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGWorkAvg365D)
		}
	}
}

func evaluateDutySpanAvg28D(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.DutySpanAvg28D
	if !rule.Applies(kind) {
		return
	}
	window := 28 * 24 * time.Hour
	for i, s := range snaps {
		sum, count := 0, 0
		for j := i; j >= 0 && s.dayStart.Sub(snaps[j].dayStart) < window; j-- {
			sum += snaps[j].dutySpanMinutes
			count++
		}
		if count > 0 && sum/count > rule.MaxAverageMinutesPerDay {
			annotateDutyBoundaries(s.duty, conflict.CodeAZGDutySpanAvg28D)
		}
	}
}

func evaluateRestAvg28D(snaps []*dutySnapshot, rc *resolve.ResolvedConfig, kind model.OwnerGroup) {
	rule := rc.AZG.RestAvg28D
	if !rule.Applies(kind) || len(snaps) < 2 {
		return
	}
	window := 28 * 24 * time.Hour
	for i := 1; i < len(snaps); i++ {
		sum, count := 0, 0
		for j := i; j >= 1 && snaps[i].dayStart.Sub(snaps[j].dayStart) < window; j-- {
			prevEnd := snaps[j-1].dayStart.Add(time.Duration(snaps[j-1].dutySpanMinutes) * time.Minute)
			rest := int(snaps[j].dayStart.Sub(prevEnd).Minutes())
			sum += rest
			count++
		}
		if count > 0 && sum/count < rule.MinAverageMinutesPerDay {
			annotateDutyBoundaries(snaps[i].duty, conflict.CodeAZGRestAvg28D)
		}
	}
}

func annotateDutyBoundaries(duty *model.Duty, code conflict.Code) {
	if sb := duty.Boundary(model.ManagedRoleStart); sb != nil {
		annotateOne(duty, sb, code)
	}
	if eb := duty.Boundary(model.ManagedRoleEnd); eb != nil {
		annotateOne(duty, eb, code)
	}
}
