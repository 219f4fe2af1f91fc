// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package resolve implements the Config & Type Resolver (spec.md §4.1): it
// turns raw rule parameters and the activity-type catalog into a single
// immutable ResolvedConfig, picking the canonical type id per role and
// failing fast with a ConfigError when a mandatory role has no candidate.
package resolve

import (
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	apperrors "github.com/kron12345/coreplanx/pkg/errors"
)

// Role is one of the seven activity-type roles the resolver fills in.
type Role string

const (
	RolePersonnelStart Role = "personnel-start"
	RolePersonnelEnd   Role = "personnel-end"
	RoleVehicleStart   Role = "vehicle-start"
	RoleVehicleEnd     Role = "vehicle-end"
	RoleBreak          Role = "break"
	RoleShortBreak     Role = "short-break"
	RoleCommute        Role = "commute"
)

// mandatoryRoles lists the roles spec.md §4.1 names as mandatory: "if none
// is found for a mandatory role (short-break, commute, personnel-start,
// personnel-end, vehicle-start, vehicle-end), the resolver fails".
var mandatoryRoles = []Role{
	RolePersonnelStart, RolePersonnelEnd,
	RoleVehicleStart, RoleVehicleEnd,
	RoleShortBreak, RoleCommute,
}

// ResolvedConfig is the materialized, immutable config spec.md §3 defines:
// numeric bounds, canonical type ids per role, and the enabled AZG rule
// bundle. It is computed once per apply() call and never mutated after.
type ResolvedConfig struct {
	MaxWorkMinutes           int
	MaxContinuousWorkMinutes int
	MinBreakMinutes          int
	MinShortBreakMinutes     int
	MaxDutySpanMinutes       int
	MaxConflictLevel         int

	BreakTypeIDs      map[string]struct{}
	ShortBreakTypeID  string
	CommuteTypeID     string

	StartTypeIDByOwnerGroup map[model.OwnerGroup]string
	EndTypeIDByOwnerGroup   map[model.OwnerGroup]string

	// BoundaryTypeIDs is the union of every start/end type id, regardless of
	// group. The autoframer recognizes pre-existing boundaries by their
	// ServiceRole, not by this set.
	BoundaryTypeIDs map[string]struct{}

	AZG AZGRules
}

// AZGRules is the enabled AZG rule bundle, one typed rule per code family
// (spec.md §9: "modeled as a slice of typed rule structs ... so new rules
// can be added without touching the evaluator's control flow").
type AZGRules struct {
	BreakRequired        store.BreakRequiredParams
	BreakStandardMin     store.BreakStandardMinParams
	BreakMidpoint        store.BreakMidpointParams
	BreakMaxCount        store.BreakMaxCountParams
	BreakTooShort        store.BreakTooShortParams
	BreakForbiddenNight  store.BreakForbiddenNightParams
	WorkExceedBuffer     store.ExceedBufferParams
	DutySpanExceedBuffer store.ExceedBufferParams
	WorkAvg7D            store.WorkAvg7DParams
	WorkAvg365D          store.WorkAvg365DParams
	DutySpanAvg28D       store.DutySpanAvg28DParams
	RestAvg28D           store.RestAvg28DParams
	RestMin              store.RestMinParams
	NightStreakMax       store.NightStreakMaxParams
	Night28DMax          store.Night28DMaxParams
	RestDaysYearMin      store.RestDaysYearMinParams
	RestSundaysYearMin   store.RestSundaysYearMinParams
}

// Resolve computes a ResolvedConfig from raw rules and catalog type
// definitions, per spec.md §4.1's preference order: explicit config first,
// then a flagged catalog entry that doesn't overlap the opposite role, then
// any flagged entry.
func Resolve(raw store.RawRules, defs []store.TypeDefinition) (*ResolvedConfig, error) {
	rc := &ResolvedConfig{
		MaxWorkMinutes:           raw.MaxWorkMinutes,
		MaxContinuousWorkMinutes: raw.MaxContinuousWorkMinutes,
		MinBreakMinutes:          raw.MinBreakMinutes,
		MinShortBreakMinutes:     raw.MinShortBreakMinutes,
		MaxDutySpanMinutes:       raw.MaxDutySpanMinutes,
		MaxConflictLevel:         raw.MaxConflictLevel,
		BreakTypeIDs:             make(map[string]struct{}),
		StartTypeIDByOwnerGroup:  make(map[model.OwnerGroup]string, 2),
		EndTypeIDByOwnerGroup:    make(map[model.OwnerGroup]string, 2),
		BoundaryTypeIDs:          make(map[string]struct{}),
		AZG: AZGRules{
			BreakRequired:        raw.AZG.BreakRequired,
			BreakStandardMin:     raw.AZG.BreakStandardMin,
			BreakMidpoint:        raw.AZG.BreakMidpoint,
			BreakMaxCount:        raw.AZG.BreakMaxCount,
			BreakTooShort:        raw.AZG.BreakTooShort,
			BreakForbiddenNight:  raw.AZG.BreakForbiddenNight,
			WorkExceedBuffer:     raw.AZG.WorkExceedBuffer,
			DutySpanExceedBuffer: raw.AZG.DutySpanExceedBuffer,
			WorkAvg7D:            raw.AZG.WorkAvg7D,
			WorkAvg365D:          raw.AZG.WorkAvg365D,
			DutySpanAvg28D:       raw.AZG.DutySpanAvg28D,
			RestAvg28D:           raw.AZG.RestAvg28D,
			RestMin:              raw.AZG.RestMin,
			NightStreakMax:       raw.AZG.NightStreakMax,
			Night28DMax:          raw.AZG.Night28DMax,
			RestDaysYearMin:      raw.AZG.RestDaysYearMin,
			RestSundaysYearMin:   raw.AZG.RestSundaysYearMin,
		},
	}

	personnelStart, err := resolveRole(RolePersonnelStart, raw.ExplicitStartTypeID, defs)
	if err != nil {
		return nil, err
	}
	personnelEnd, err := resolveRole(RolePersonnelEnd, raw.ExplicitEndTypeID, defs)
	if err != nil {
		return nil, err
	}
	vehicleStart, err := resolveRole(RoleVehicleStart, "", defs)
	if err != nil {
		return nil, err
	}
	vehicleEnd, err := resolveRole(RoleVehicleEnd, "", defs)
	if err != nil {
		return nil, err
	}
	shortBreak, err := resolveRole(RoleShortBreak, raw.ExplicitShortBreakTypeID, defs)
	if err != nil {
		return nil, err
	}
	commute, err := resolveRole(RoleCommute, raw.ExplicitCommuteTypeID, defs)
	if err != nil {
		return nil, err
	}

	rc.StartTypeIDByOwnerGroup[model.OwnerGroupPersonnel] = personnelStart
	rc.StartTypeIDByOwnerGroup[model.OwnerGroupVehicle] = vehicleStart
	rc.EndTypeIDByOwnerGroup[model.OwnerGroupPersonnel] = personnelEnd
	rc.EndTypeIDByOwnerGroup[model.OwnerGroupVehicle] = vehicleEnd
	rc.ShortBreakTypeID = shortBreak
	rc.CommuteTypeID = commute

	for _, id := range []string{personnelStart, personnelEnd, vehicleStart, vehicleEnd} {
		if id != "" {
			rc.BoundaryTypeIDs[id] = struct{}{}
		}
	}

	if len(raw.ExplicitBreakTypeIDs) > 0 {
		for _, id := range raw.ExplicitBreakTypeIDs {
			rc.BreakTypeIDs[id] = struct{}{}
		}
	} else {
		for _, def := range defs {
			if def.Flags.IsBreak {
				rc.BreakTypeIDs[def.TypeID] = struct{}{}
			}
		}
	}

	return rc, nil
}

// resolveRole picks the canonical type id for role, preferring explicit
// config, then a flagged catalog entry not overlapping the opposite role,
// then any flagged entry, failing with MissingRole if role is mandatory
// and nothing was found.
func resolveRole(role Role, explicit string, defs []store.TypeDefinition) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	var fallback string
	for _, def := range defs {
		if !flagMatches(role, def.Flags) {
			continue
		}
		if !overlapsOpposite(role, def.Flags) {
			return def.TypeID, nil
		}
		if fallback == "" {
			fallback = def.TypeID
		}
	}
	if fallback != "" {
		return fallback, nil
	}

	if isMandatory(role) {
		return "", apperrors.MissingRole(string(role))
	}
	return "", nil
}

func flagMatches(role Role, f store.TypeFlags) bool {
	switch role {
	case RolePersonnelStart, RoleVehicleStart:
		return f.IsServiceStart || f.IsVehicleOn
	case RolePersonnelEnd, RoleVehicleEnd:
		return f.IsServiceEnd || f.IsVehicleOff
	case RoleBreak:
		return f.IsBreak
	case RoleShortBreak:
		return f.IsShortBreak
	case RoleCommute:
		return f.IsCommute
	default:
		return false
	}
}

// overlapsOpposite reports whether a candidate for role also carries the
// flag of the opposite boundary role — spec.md §4.1: "start candidates
// must not also be vehicle-on" (and symmetrically for the other pairs).
func overlapsOpposite(role Role, f store.TypeFlags) bool {
	switch role {
	case RolePersonnelStart:
		return f.IsVehicleOn
	case RoleVehicleStart:
		return f.IsServiceStart
	case RolePersonnelEnd:
		return f.IsVehicleOff
	case RoleVehicleEnd:
		return f.IsServiceEnd
	default:
		return false
	}
}

func isMandatory(role Role) bool {
	for _, m := range mandatoryRoles {
		if m == role {
			return true
		}
	}
	return false
}
