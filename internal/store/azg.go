// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package store

import "github.com/kron12345/coreplanx/model"

// AZGRawParams is the unresolved labor-law rule bundle a RuleStore returns.
// Each field maps to one code family from spec.md §4.5's table. The Type
// Resolver copies every rule through as is, disabled ones included; the
// compliance pass skips a rule whose Enabled is false via RuleBase.Applies.
type AZGRawParams struct {
	BreakRequired       BreakRequiredParams
	BreakStandardMin    BreakStandardMinParams
	BreakMidpoint       BreakMidpointParams
	BreakMaxCount       BreakMaxCountParams
	BreakTooShort       BreakTooShortParams
	BreakForbiddenNight BreakForbiddenNightParams
	WorkExceedBuffer    ExceedBufferParams
	DutySpanExceedBuffer ExceedBufferParams
	WorkAvg7D           WorkAvg7DParams
	WorkAvg365D         WorkAvg365DParams
	DutySpanAvg28D      DutySpanAvg28DParams
	RestAvg28D          RestAvg28DParams
	RestMin             RestMinParams
	NightStreakMax      NightStreakMaxParams
	Night28DMax         Night28DMaxParams
	RestDaysYearMin     RestDaysYearMinParams
	RestSundaysYearMin  RestSundaysYearMinParams
}

// RuleBase is embedded by every AZG rule's parameter struct; it carries the
// common Enabled flag and optional ResourceKinds filter spec.md §4.5's
// closing paragraph describes ("each AZG rule accepts an optional
// resourceKinds filter").
type RuleBase struct {
	Enabled       bool
	ResourceKinds []model.OwnerGroup // nil/empty means "all kinds"
}

// Applies reports whether this rule applies to an owner of the given kind.
func (b RuleBase) Applies(kind model.OwnerGroup) bool {
	if !b.Enabled {
		return false
	}
	if len(b.ResourceKinds) == 0 {
		return true
	}
	for _, k := range b.ResourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

type BreakRequiredParams struct {
	RuleBase
	MaxContinuousMinutes int
}

type BreakStandardMinParams struct {
	RuleBase
	InterruptionThresholdMinutes int
	StandardMinuteMin            int
}

type BreakMidpointParams struct {
	RuleBase
	LongDutyThresholdMinutes int
	ToleranceMinutes         int
}

type BreakMaxCountParams struct {
	RuleBase
	Max int
}

type BreakTooShortParams struct {
	RuleBase
	MinBreakMinutes int
}

type BreakForbiddenNightParams struct {
	RuleBase
	StartHour int // 0-23, local to the forbidden window; may be > EndHour to wrap midnight
	EndHour   int
}

type ExceedBufferParams struct {
	RuleBase
	LimitMinutes  int
	BufferMinutes int
}

type WorkAvg7DParams struct {
	RuleBase
	MaxAverageMinutesPerDay int
}

type WorkAvg365DParams struct {
	RuleBase
	MaxAverageMinutesPerDay int
}

type DutySpanAvg28DParams struct {
	RuleBase
	MaxAverageMinutesPerDay int
}

type RestAvg28DParams struct {
	RuleBase
	MinAverageMinutesPerDay int
}

type RestMinParams struct {
	RuleBase
	MinRestMinutes int
}

type NightStreakMaxParams struct {
	RuleBase
	MaxConsecutiveDays int
}

type Night28DMaxParams struct {
	RuleBase
	MaxCount int
}

type RestDaysYearMinParams struct {
	RuleBase
	MinRestDays int
	// ExtraRestDates are "MM-DD" dates counted as rest days even when a duty
	// falls on them. The Sunday-rest count uses calendar Sundays only: public
	// holidays (New Year, Christmas, Ascension) and these extra dates are not
	// counted as Sunday-like rest days.
	ExtraRestDates []string
}

type RestSundaysYearMinParams struct {
	RuleBase
	MinRestSundays int
}
