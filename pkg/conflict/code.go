// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package conflict implements the closed-enum conflict taxonomy called for
// in spec.md §9: codes carry a severity, unknown codes (from a future rule
// bundle) still round-trip, and the level mapping clamps at a configured
// maximum the same way the teacher's pkg/errors clamps retry counts.
package conflict

// Level is the three-state severity a conflict code maps to.
type Level int

const (
	LevelClean Level = 0
	LevelWarn  Level = 1
	LevelError Level = 2
)

// Code is a conflict code. The constants below are the known codes; any
// other string is an unknown code, which the fixed tables don't recognize
// and which still round-trips through attributes with level 0 (spec.md §9).
type Code string

// Worktime layer (spec.md §4.4.6).
const (
	CodeMaxDutySpan    Code = "MAX_DUTY_SPAN"
	CodeMaxWork        Code = "MAX_WORK"
	CodeMaxContinuous  Code = "MAX_CONTINUOUS"
	CodeNoBreakWindow  Code = "NO_BREAK_WINDOW"
	CodeCapacityOverlap Code = "CAPACITY_OVERLAP"
	CodeLocationSequence Code = "LOCATION_SEQUENCE"
)

// Home-depot layer (spec.md §4.4.3/§4.4.6).
const (
	CodeHomeDepotNotFound               Code = "HOME_DEPOT_NOT_FOUND"
	CodeWalkTimeMissingStart            Code = "WALK_TIME_MISSING_START"
	CodeWalkTimeMissingEnd              Code = "WALK_TIME_MISSING_END"
	CodeHomeDepotStartLocationMissing   Code = "HOME_DEPOT_START_LOCATION_MISSING"
	CodeHomeDepotEndLocationMissing     Code = "HOME_DEPOT_END_LOCATION_MISSING"
	CodeHomeDepotSiteNotFound           Code = "HOME_DEPOT_SITE_NOT_FOUND"
	CodeHomeDepotNoSites                Code = "HOME_DEPOT_NO_SITES"
	CodeHomeDepotNotInDepot             Code = "HOME_DEPOT_NOT_IN_DEPOT"
	CodeHomeDepotOvernightSiteForbidden Code = "HOME_DEPOT_OVERNIGHT_SITE_FORBIDDEN"
	CodeHomeDepotOvernightLocationMissing Code = "HOME_DEPOT_OVERNIGHT_LOCATION_MISSING"
)

// AZG (labor-law) layer (spec.md §4.5).
const (
	CodeAZGBreakRequired         Code = "AZG_BREAK_REQUIRED"
	CodeAZGBreakStandardMin      Code = "AZG_BREAK_STANDARD_MIN"
	CodeAZGBreakMidpoint         Code = "AZG_BREAK_MIDPOINT"
	CodeAZGBreakMaxCount         Code = "AZG_BREAK_MAX_COUNT"
	CodeAZGBreakTooShort         Code = "AZG_BREAK_TOO_SHORT"
	CodeAZGBreakForbiddenNight   Code = "AZG_BREAK_FORBIDDEN_NIGHT"
	CodeAZGWorkExceedBuffer      Code = "AZG_WORK_EXCEED_BUFFER"
	CodeAZGDutySpanExceedBuffer  Code = "AZG_DUTY_SPAN_EXCEED_BUFFER"
	CodeAZGWorkAvg7D             Code = "AZG_WORK_AVG_7D"
	CodeAZGWorkAvg365D           Code = "AZG_WORK_AVG_365D"
	CodeAZGDutySpanAvg28D        Code = "AZG_DUTY_SPAN_AVG_28D"
	CodeAZGRestAvg28D            Code = "AZG_REST_AVG_28D"
	CodeAZGRestMin               Code = "AZG_REST_MIN"
	CodeAZGNightStreakMax        Code = "AZG_NIGHT_STREAK_MAX"
	CodeAZGNight28DMax           Code = "AZG_NIGHT_28D_MAX"
	CodeAZGRestDaysYearMin       Code = "AZG_REST_DAYS_YEAR_MIN"
	CodeAZGRestSundaysYearMin    Code = "AZG_REST_SUNDAYS_YEAR_MIN"
)

// errorCodes map to LevelError; warnCodes map to LevelWarn. Everything else,
// including any code a future rule bundle emits that this binary doesn't
// recognize yet, maps to LevelClean — the "Unknown" arm of the sum type.
var errorCodes = map[Code]struct{}{
	CodeCapacityOverlap:          {},
	CodeMaxDutySpan:              {},
	CodeMaxWork:                  {},
	CodeMaxContinuous:            {},
	CodeHomeDepotNotFound:        {},
	CodeHomeDepotNoSites:         {},
	CodeHomeDepotNotInDepot:      {},
	CodeHomeDepotOvernightSiteForbidden: {},
	CodeAZGBreakRequired:         {},
	CodeAZGRestMin:               {},
	CodeAZGNightStreakMax:        {},
	CodeAZGNight28DMax:           {},
	CodeAZGRestDaysYearMin:       {},
	CodeAZGRestSundaysYearMin:    {},
	CodeAZGBreakForbiddenNight:   {},
}

var warnCodes = map[Code]struct{}{
	CodeLocationSequence:              {},
	CodeNoBreakWindow:                 {},
	CodeWalkTimeMissingStart:          {},
	CodeWalkTimeMissingEnd:            {},
	CodeHomeDepotStartLocationMissing: {},
	CodeHomeDepotEndLocationMissing:   {},
	CodeHomeDepotSiteNotFound:         {},
	CodeHomeDepotOvernightLocationMissing: {},
	CodeAZGBreakStandardMin:  {},
	CodeAZGBreakMidpoint:     {},
	CodeAZGBreakMaxCount:     {},
	CodeAZGBreakTooShort:     {},
	CodeAZGWorkExceedBuffer:  {},
	CodeAZGDutySpanExceedBuffer: {},
	CodeAZGWorkAvg7D:         {},
	CodeAZGWorkAvg365D:       {},
	CodeAZGDutySpanAvg28D:    {},
	CodeAZGRestAvg28D:        {},
}

// Severity maps a code to its level, consulting the fixed tables above.
// Unknown codes map to LevelClean, never to an error.
func (c Code) Severity() Level {
	if _, ok := errorCodes[c]; ok {
		return LevelError
	}
	if _, ok := warnCodes[c]; ok {
		return LevelWarn
	}
	return LevelClean
}

// Clamp bounds a level at maxLevel, per the "conflict-level mapping clamps
// at maxConflictLevel" rule in spec.md §7.
func Clamp(level Level, maxLevel Level) Level {
	if level > maxLevel {
		return maxLevel
	}
	return level
}
