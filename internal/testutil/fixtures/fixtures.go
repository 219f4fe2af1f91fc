// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package fixtures builds synthetic, in-memory RuleStore/CatalogStore/
// MasterDataStore implementations for exercising the autopilot outside of a
// caller's real collaborator stores: the cmd/dutyplayground harness and the
// package-level tests that want a full resolve.ResolvedConfig/store.Index
// rather than a single hand-built one both use these.
package fixtures

import (
	"context"

	"github.com/google/uuid"

	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
)

// RuleStore is an in-memory store.RuleStore backed by one fixed RawRules
// value, regardless of stage or variant.
type RuleStore struct {
	Raw store.RawRules
}

// RawRules implements store.RuleStore.
func (s RuleStore) RawRules(ctx context.Context, stageID model.Stage, variantID string) (store.RawRules, error) {
	return s.Raw, nil
}

// CatalogStore is an in-memory store.CatalogStore backed by one fixed type
// catalog, regardless of stage.
type CatalogStore struct {
	Defs []store.TypeDefinition
}

// TypeDefinitions implements store.CatalogStore.
func (s CatalogStore) TypeDefinitions(ctx context.Context, stageID model.Stage) ([]store.TypeDefinition, error) {
	return s.Defs, nil
}

// MasterDataStore is an in-memory store.MasterDataStore backed by one fixed
// snapshot, regardless of stage or variant.
type MasterDataStore struct {
	Snap *store.Snapshot
}

// Snapshot implements store.MasterDataStore.
func (s MasterDataStore) Snapshot(ctx context.Context, stageID model.Stage, variantID string) (*store.Snapshot, error) {
	return s.Snap, nil
}

// DefaultRawRules returns a worktime rule bundle with every AZG rule
// enabled and parameterized at commonly cited labor-law defaults, so a
// harness run exercises the full rule stack without extra configuration.
func DefaultRawRules() store.RawRules {
	allKinds := store.RuleBase{Enabled: true}

	return store.RawRules{
		MaxWorkMinutes:           600,
		MaxContinuousWorkMinutes: 360,
		MinBreakMinutes:          30,
		MinShortBreakMinutes:     15,
		MaxDutySpanMinutes:       780,
		MaxConflictLevel:         2,
		AZG: store.AZGRawParams{
			BreakRequired:    store.BreakRequiredParams{RuleBase: allKinds, MaxContinuousMinutes: 360},
			BreakStandardMin: store.BreakStandardMinParams{RuleBase: allKinds, InterruptionThresholdMinutes: 360, StandardMinuteMin: 30},
			BreakMidpoint:    store.BreakMidpointParams{RuleBase: allKinds, LongDutyThresholdMinutes: 540, ToleranceMinutes: 60},
			BreakMaxCount:    store.BreakMaxCountParams{RuleBase: allKinds, Max: 3},
			BreakTooShort:    store.BreakTooShortParams{RuleBase: allKinds, MinBreakMinutes: 15},
			BreakForbiddenNight: store.BreakForbiddenNightParams{RuleBase: allKinds, StartHour: 0, EndHour: 4},
			WorkExceedBuffer:     store.ExceedBufferParams{RuleBase: allKinds, LimitMinutes: 600, BufferMinutes: 30},
			DutySpanExceedBuffer: store.ExceedBufferParams{RuleBase: allKinds, LimitMinutes: 780, BufferMinutes: 30},
			WorkAvg7D:       store.WorkAvg7DParams{RuleBase: allKinds, MaxAverageMinutesPerDay: 480},
			WorkAvg365D:     store.WorkAvg365DParams{RuleBase: allKinds, MaxAverageMinutesPerDay: 420},
			DutySpanAvg28D:  store.DutySpanAvg28DParams{RuleBase: allKinds, MaxAverageMinutesPerDay: 600},
			RestAvg28D:      store.RestAvg28DParams{RuleBase: allKinds, MinAverageMinutesPerDay: 660},
			RestMin:         store.RestMinParams{RuleBase: allKinds, MinRestMinutes: 660},
			NightStreakMax:  store.NightStreakMaxParams{RuleBase: allKinds, MaxConsecutiveDays: 4},
			Night28DMax:     store.Night28DMaxParams{RuleBase: allKinds, MaxCount: 10},
			RestDaysYearMin: store.RestDaysYearMinParams{RuleBase: allKinds, MinRestDays: 104, ExtraRestDates: []string{"01-01", "12-25"}},
			RestSundaysYearMin: store.RestSundaysYearMinParams{RuleBase: allKinds, MinRestSundays: 26},
		},
	}
}

// DefaultTypeDefinitions returns a catalog covering every resolver role
// (spec.md §4.1) with one canonical type id per role, plus a generic
// passenger-service payload type.
func DefaultTypeDefinitions() []store.TypeDefinition {
	return []store.TypeDefinition{
		{TypeID: "T_DUTY_START", Flags: store.TypeFlags{IsServiceStart: true}},
		{TypeID: "T_DUTY_END", Flags: store.TypeFlags{IsServiceEnd: true}},
		{TypeID: "T_BREAK", Flags: store.TypeFlags{IsBreak: true}},
		{TypeID: "T_SHORT_BREAK", Flags: store.TypeFlags{IsShortBreak: true}},
		{TypeID: "T_COMMUTE", Flags: store.TypeFlags{IsCommute: true}},
		{TypeID: "T_VEHICLE_ON", Flags: store.TypeFlags{IsVehicleOn: true}},
		{TypeID: "T_VEHICLE_OFF", Flags: store.TypeFlags{IsVehicleOff: true}},
		{TypeID: "T_OVERNIGHT", Flags: store.TypeFlags{IsOvernight: true}},
		{TypeID: "T_ABSENCE", Flags: store.TypeFlags{IsAbsence: true}},
		{TypeID: "T_TRIP", Flags: store.TypeFlags{}},
	}
}

// DefaultSnapshot returns a small master-data snapshot: two personnel, two
// vehicles, one home depot each, three personnel sites, and a walk-time
// index with a single pair of edges between SITE-A1 and OP-X.
func DefaultSnapshot() *store.Snapshot {
	depotA := store.HomeDepot{
		ID:                "DEPOT-A",
		SiteIDs:           siteSet("SITE-A1", "SITE-A2"),
		BreakSiteIDs:      siteSet("SITE-A1"),
		ShortBreakSiteIDs: siteSet("SITE-A1", "SITE-A2"),
		OvernightSiteIDs:  siteSet("SITE-A2"),
	}
	depotB := store.HomeDepot{
		ID:                "DEPOT-B",
		SiteIDs:           siteSet("SITE-B1"),
		BreakSiteIDs:      siteSet("SITE-B1"),
		ShortBreakSiteIDs: siteSet("SITE-B1"),
		OvernightSiteIDs:  siteSet("SITE-B1"),
	}

	walk := store.WalkTimeIndex{}
	a1 := store.PersonnelSiteNode("SITE-A1")
	opX := store.OPNode("OP-X")
	walk.Set(a1, opX, 6)
	walk.Set(opX, a1, 6)

	return &store.Snapshot{
		Personnel: []store.Personnel{
			{ResourceID: "PS-1", HomeDepotID: "DEPOT-A"},
			{ResourceID: "PS-2", HomeDepotID: "DEPOT-B"},
		},
		Vehicles: []store.Vehicle{
			{ResourceID: "V-1", HomeDepotID: "DEPOT-A"},
			{ResourceID: "V-2", HomeDepotID: "DEPOT-B"},
		},
		HomeDepots: []store.HomeDepot{depotA, depotB},
		PersonnelSites: []store.PersonnelSite{
			{ID: "SITE-A1", OperationalPointID: "OP-X"},
			{ID: "SITE-A2", OperationalPointID: "OP-Y"},
			{ID: "SITE-B1", OperationalPointID: "OP-Z"},
		},
		OperationalPoints: []store.OperationalPoint{
			{ID: "OP-X"}, {ID: "OP-Y"}, {ID: "OP-Z"},
		},
		WalkTimes: walk,
	}
}

func siteSet(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// NewActivityID mints a random activity id for fixture payloads that don't
// need a stable, human-chosen one.
func NewActivityID() string {
	return "trip-" + uuid.NewString()
}
