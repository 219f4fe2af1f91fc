// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package coreplanx is the duty autopilot's public entry point: a
// deterministic function over calendar activities that groups them into
// duties, synthesizes managed boundary/break/commute activities, and
// evaluates the worktime and AZG labor-law rule stacks, producing an
// upserts/deletedIds/touchedIds diff (spec.md §6).
package coreplanx

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/kron12345/coreplanx/internal/autoframe"
	"github.com/kron12345/coreplanx/internal/compliance"
	"github.com/kron12345/coreplanx/internal/group"
	"github.com/kron12345/coreplanx/internal/normalize"
	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
	pctx "github.com/kron12345/coreplanx/pkg/context"
	"github.com/kron12345/coreplanx/pkg/logging"
	"github.com/kron12345/coreplanx/pkg/retry"
)

// Result is the diff apply() hands back to the caller (spec.md §6):
// upserts carry the full new representation of every changed activity,
// deletedIds lists superseded or orphaned managed ids, and touchedIds is
// their union.
type Result struct {
	Upserts    []*model.Activity
	DeletedIDs []string
	TouchedIDs []string
}

// CleanupResult is cleanupServiceBoundaries' output (spec.md §6).
type CleanupResult struct {
	DeletedIDs []string
	Entries    int
}

// NormalizeResult is normalizeManagedServiceActivities' output (spec.md §6).
type NormalizeResult struct {
	Upserts    []*model.Activity
	DeletedIDs []string
	Entries    int
}

// Autopilot binds the three read-only collaborator stores spec.md §1
// delegates to the caller, plus the ambient logging and retry knobs the
// store fetches run under.
type Autopilot struct {
	rules      store.RuleStore
	catalog    store.CatalogStore
	masterData store.MasterDataStore

	logger       logging.Logger
	retryPolicy  retry.Policy
	storeTimeout time.Duration
}

// AutopilotOption configures an Autopilot at construction time.
type AutopilotOption func(*Autopilot)

// WithLogger overrides the default logger.
func WithLogger(l logging.Logger) AutopilotOption {
	return func(a *Autopilot) { a.logger = l }
}

// WithRetryPolicy overrides the default no-retry policy for collaborator
// store fetches (spec.md §5's single await point).
func WithRetryPolicy(p retry.Policy) AutopilotOption {
	return func(a *Autopilot) { a.retryPolicy = p }
}

// WithStoreTimeout overrides the default per-attempt timeout bound on each
// collaborator store fetch (see pctx.EnsureTimeout in resolveAll).
func WithStoreTimeout(d time.Duration) AutopilotOption {
	return func(a *Autopilot) { a.storeTimeout = d }
}

// New builds an Autopilot bound to the given collaborator stores.
func New(rules store.RuleStore, catalog store.CatalogStore, masterData store.MasterDataStore, opts ...AutopilotOption) *Autopilot {
	a := &Autopilot{
		rules:        rules,
		catalog:      catalog,
		masterData:   masterData,
		logger:       logging.NewLogger(nil),
		retryPolicy:  retry.NewNoRetry(),
		storeTimeout: pctx.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply runs the full five-stage pipeline (spec.md §2): resolve config,
// normalize, group into duties, autoframe each duty, then run the
// whole-input compliance passes.
func (a *Autopilot) Apply(ctx context.Context, stageID model.Stage, variantID string, activities []*model.Activity) (Result, error) {
	rc, idx, err := a.resolveAll(ctx, stageID, variantID)
	if err != nil {
		return Result{}, err
	}

	working := cloneActivities(activities)
	normalize.Normalize(working)

	grouped := group.Group(stageID, working, rc.MaxDutySpanMinutes)

	deleted := make(map[string]struct{})
	for _, orphan := range grouped.Orphaned {
		deleted[orphan.ID] = struct{}{}
	}

	for _, duty := range grouped.Duties {
		res := autoframe.Frame(duty, rc, idx)
		for _, id := range res.DeletedIDs {
			deleted[id] = struct{}{}
		}
		duty.Activities = dedupeByID(res.Upserts)
	}

	compliance.Run(grouped.Duties, grouped.OutsideService, rc, idx)

	upserts := make(map[string]*model.Activity)
	for _, duty := range grouped.Duties {
		for _, act := range duty.Activities {
			upserts[act.ID] = act
		}
	}
	for _, act := range grouped.OutsideService {
		upserts[act.ID] = act
	}
	for id := range deleted {
		delete(upserts, id)
	}

	a.logger.Debug("apply complete", "duties", len(grouped.Duties), "orphaned", len(grouped.Orphaned), "upserts", len(upserts), "deleted", len(deleted))

	return buildResult(upserts, deleted), nil
}

// ApplyWorktimeCompliance re-runs only the compliance passes over the
// existing input, without synthesizing any managed activity (spec.md §6).
func (a *Autopilot) ApplyWorktimeCompliance(ctx context.Context, stageID model.Stage, variantID string, activities []*model.Activity) ([]*model.Activity, error) {
	rc, idx, err := a.resolveAll(ctx, stageID, variantID)
	if err != nil {
		return nil, err
	}

	working := cloneActivities(activities)
	grouped := group.Group(stageID, working, rc.MaxDutySpanMinutes)
	compliance.Run(grouped.Duties, grouped.OutsideService, rc, idx)

	out := make([]*model.Activity, 0, len(working))
	for _, duty := range grouped.Duties {
		out = append(out, duty.Activities...)
	}
	out = append(out, grouped.OutsideService...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CleanupServiceBoundaries enforces one start/end boundary per (owner,
// dayKey), preferring the earlier start / later end and, at ties, a
// manually pinned boundary (spec.md §6).
func (a *Autopilot) CleanupServiceBoundaries(activities []*model.Activity) CleanupResult {
	type key struct {
		owner string
		day   string
		role  model.ManagedRole
	}
	groups := make(map[key][]*model.Activity)

	for _, act := range activities {
		mid, ok := model.ParseManagedID(act.ID)
		if !ok || (mid.Role != model.ManagedRoleStart && mid.Role != model.ManagedRoleEnd) {
			continue
		}
		k := key{owner: mid.Service.OwnerID, day: mid.Service.DayKey, role: mid.Role}
		groups[k] = append(groups[k], act)
	}

	var deleted []string
	for _, acts := range groups {
		if len(acts) <= 1 {
			continue
		}
		winner := acts[0]
		for _, cand := range acts[1:] {
			if betterBoundary(cand, winner) {
				winner = cand
			}
		}
		for _, act := range acts {
			if act != winner {
				deleted = append(deleted, act.ID)
			}
		}
	}

	sort.Strings(deleted)
	return CleanupResult{DeletedIDs: deleted, Entries: len(groups)}
}

// betterBoundary reports whether cand should win over incumbent: start
// boundaries prefer the earlier start, end boundaries prefer the later
// end, ties broken by a manually pinned boundary.
func betterBoundary(cand, incumbent *model.Activity) bool {
	candIsEnd := cand.ServiceRole == model.ServiceRoleEnd
	var better bool
	switch {
	case candIsEnd:
		better = cand.EndOrDefault().After(incumbent.EndOrDefault())
	default:
		better = cand.Start.Before(incumbent.Start)
	}
	if better {
		return true
	}
	sameTime := candIsEnd && cand.EndOrDefault().Equal(incumbent.EndOrDefault()) ||
		!candIsEnd && cand.Start.Equal(incumbent.Start)
	if sameTime && isManual(cand) && !isManual(incumbent) {
		return true
	}
	return false
}

func isManual(act *model.Activity) bool {
	return act.Attributes != nil && act.Attributes.ManualServiceBoundary
}

// NormalizeManagedServiceActivities rewrites managed activity ids to their
// canonical form when they don't already match it (spec.md §6).
func (a *Autopilot) NormalizeManagedServiceActivities(activities []*model.Activity) NormalizeResult {
	var upserts []*model.Activity
	var deletedIDs []string
	entries := 0

	for _, act := range activities {
		if act.ServiceID == "" {
			continue
		}
		svc, ok := model.ParseServiceID(act.ServiceID)
		if !ok {
			continue
		}
		canonical, ok := canonicalManagedID(act, svc)
		if !ok || canonical == act.ID {
			continue
		}
		entries++
		renamed := *act
		renamed.ID = canonical
		upserts = append(upserts, &renamed)
		deletedIDs = append(deletedIDs, act.ID)
	}

	sort.Slice(upserts, func(i, j int) bool { return upserts[i].ID < upserts[j].ID })
	sort.Strings(deletedIDs)
	return NormalizeResult{Upserts: upserts, DeletedIDs: deletedIDs, Entries: entries}
}

func canonicalManagedID(act *model.Activity, svc model.ServiceID) (string, bool) {
	switch act.ServiceRole {
	case model.ServiceRoleStart:
		return model.BoundaryID(model.ManagedRoleStart, svc), true
	case model.ServiceRoleEnd:
		return model.BoundaryID(model.ManagedRoleEnd, svc), true
	}
	if mid, ok := model.ParseManagedID(act.ID); ok {
		switch mid.Role {
		case model.ManagedRoleBreak, model.ManagedRoleShortBreak:
			short := mid.Role == model.ManagedRoleShortBreak
			if boolAttr(act.Attributes, func(a *model.Attributes) *bool { return a.IsShortBreak }) {
				short = true
			}
			ordinal, _ := strconv.Atoi(mid.Ordinal)
			return model.BreakID(short, svc, ordinal), true
		case model.ManagedRoleCommute:
			return model.CommuteID(svc, mid.Ordinal), true
		}
	}
	return "", false
}

func boolAttr(attrs *model.Attributes, get func(*model.Attributes) *bool) bool {
	if attrs == nil {
		return false
	}
	p := get(attrs)
	return p != nil && *p
}

func (a *Autopilot) resolveAll(ctx context.Context, stageID model.Stage, variantID string) (*resolve.ResolvedConfig, *store.Index, error) {
	var raw store.RawRules
	if err := retry.Do(ctx, a.retryPolicy, func(ctx context.Context) error {
		var err error
		raw, err = a.fetchRawRules(ctx, stageID, variantID)
		return err
	}); err != nil {
		return nil, nil, err
	}

	var defs []store.TypeDefinition
	if err := retry.Do(ctx, a.retryPolicy, func(ctx context.Context) error {
		var err error
		defs, err = a.fetchTypeDefinitions(ctx, stageID)
		return err
	}); err != nil {
		return nil, nil, err
	}

	var snap *store.Snapshot
	if err := retry.Do(ctx, a.retryPolicy, func(ctx context.Context) error {
		var err error
		snap, err = a.fetchSnapshot(ctx, stageID, variantID)
		return err
	}); err != nil {
		return nil, nil, err
	}

	rc, err := resolve.Resolve(raw, defs)
	if err != nil {
		return nil, nil, err
	}

	return rc, store.BuildIndex(snap), nil
}

// fetchRawRules bounds one RuleStore.RawRules attempt to a.storeTimeout,
// honoring any deadline the caller's ctx already carries.
func (a *Autopilot) fetchRawRules(ctx context.Context, stageID model.Stage, variantID string) (store.RawRules, error) {
	ctx, cancel := pctx.EnsureTimeout(ctx, a.storeTimeout)
	defer cancel()
	raw, err := a.rules.RawRules(ctx, stageID, variantID)
	return raw, pctx.WrapContextError(err, "RuleStore.RawRules", a.storeTimeout)
}

// fetchTypeDefinitions bounds one CatalogStore.TypeDefinitions attempt to
// a.storeTimeout, honoring any deadline the caller's ctx already carries.
func (a *Autopilot) fetchTypeDefinitions(ctx context.Context, stageID model.Stage) ([]store.TypeDefinition, error) {
	ctx, cancel := pctx.EnsureTimeout(ctx, a.storeTimeout)
	defer cancel()
	defs, err := a.catalog.TypeDefinitions(ctx, stageID)
	return defs, pctx.WrapContextError(err, "CatalogStore.TypeDefinitions", a.storeTimeout)
}

// fetchSnapshot bounds one MasterDataStore.Snapshot attempt to
// a.storeTimeout, honoring any deadline the caller's ctx already carries.
func (a *Autopilot) fetchSnapshot(ctx context.Context, stageID model.Stage, variantID string) (*store.Snapshot, error) {
	ctx, cancel := pctx.EnsureTimeout(ctx, a.storeTimeout)
	defer cancel()
	snap, err := a.masterData.Snapshot(ctx, stageID, variantID)
	return snap, pctx.WrapContextError(err, "MasterDataStore.Snapshot", a.storeTimeout)
}

func cloneActivities(activities []*model.Activity) []*model.Activity {
	out := make([]*model.Activity, len(activities))
	for i, act := range activities {
		clone := *act
		clone.Attributes = act.Attributes.Clone()
		out[i] = &clone
	}
	return out
}

func dedupeByID(acts []*model.Activity) []*model.Activity {
	seen := make(map[string]*model.Activity, len(acts))
	order := make([]string, 0, len(acts))
	for _, act := range acts {
		if _, ok := seen[act.ID]; !ok {
			order = append(order, act.ID)
		}
		seen[act.ID] = act
	}
	out := make([]*model.Activity, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

func buildResult(upserts map[string]*model.Activity, deleted map[string]struct{}) Result {
	ids := make([]string, 0, len(upserts))
	for id := range upserts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*model.Activity, 0, len(ids))
	for _, id := range ids {
		out = append(out, upserts[id])
	}

	deletedIDs := make([]string, 0, len(deleted))
	for id := range deleted {
		deletedIDs = append(deletedIDs, id)
	}
	sort.Strings(deletedIDs)

	touched := conflict.SortedUniqueStrings(ids, deletedIDs)

	return Result{Upserts: out, DeletedIDs: deletedIDs, TouchedIDs: touched}
}
