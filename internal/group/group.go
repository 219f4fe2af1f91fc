// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package group implements the Grouper (spec.md §4.3): it partitions
// activities into duties keyed by (stageId, ownerId, UTC day), supports
// cross-midnight carry when the duty span allows it, and routes boundaries,
// breaks and managed ids to their parent duty.
package group

import (
	"time"

	"github.com/kron12345/coreplanx/model"
)

// Result is the Grouper's output: the reconstructed duties, any
// managed/boundary activity that had to be discarded because its parsed
// owner/stage disagreed with its owner candidate (spec.md §4.3: "protects
// against drag-and-drop leftovers"), and any payload activity explicitly
// marked outside-service. Outside-service activities are never assigned to
// a duty, but spec.md §9's within-service design note requires they still
// flow through local-conflict detection with serviceId = "" — they are
// not Orphaned (which the caller deletes); they are ungrouped but kept.
type Result struct {
	Duties         []*model.Duty
	Orphaned       []*model.Activity
	OutsideService []*model.Activity
}

// Group runs the two-pass grouping algorithm for one stage over acts.
func Group(stage model.Stage, acts []*model.Activity, maxDutySpanMinutes int) Result {
	sorted := make([]*model.Activity, len(acts))
	copy(sorted, acts)
	model.SortActivitiesByStart(sorted)

	byOwner := make(map[ownerKey][]*model.Activity)
	var managedOrBoundary []*model.Activity
	var outsideService []*model.Activity

	// Pass 1: bin per owner, routing outside-service payload activities
	// aside instead of into any duty, but keeping every managed/boundary
	// activity regardless of owner's within-service preference.
	for _, act := range sorted {
		if model.IsManagedID(act.ID) || isBoundary(act) {
			managedOrBoundary = append(managedOrBoundary, act)
			continue
		}
		if act.Attributes.WithinOrDefault() == model.WithinServiceOutside {
			outsideService = append(outsideService, act)
			continue
		}
		owner, ok := act.PrimaryOwner()
		if !ok {
			continue
		}
		key := ownerKey{id: owner.ResourceID, kind: owner.Kind}
		byOwner[key] = append(byOwner[key], act)
	}

	duties := make(map[model.ServiceID]*model.Duty)
	order := make([]model.ServiceID, 0)

	getOrCreate := func(svc model.ServiceID, owner model.Owner) *model.Duty {
		d, ok := duties[svc]
		if !ok {
			d = &model.Duty{ServiceID: svc, Owner: owner, DayKey: svc.DayKey}
			duties[svc] = d
			order = append(order, svc)
		}
		return d
	}

	// Pass 2: assign each owner's payload, in start-time order, to a duty.
	for key, payload := range byOwner {
		owner := model.Owner{ResourceID: key.id, Kind: key.kind}

		var dutyStart time.Time
		var dutyDayKey string
		var current model.ServiceID
		haveCurrent := false

		for _, act := range payload {
			if svc, ok := overrideServiceID(act, stage, owner.ResourceID); ok {
				current = svc
				dutyStart = act.Start
				dutyDayKey = svc.DayKey
				haveCurrent = true
				getOrCreate(current, owner).Activities = append(getOrCreate(current, owner).Activities, act)
				act.ServiceID = ""
				continue
			}

			day := utcDayKey(act.Start)
			switch {
			case !haveCurrent:
				dutyStart = act.Start
				dutyDayKey = day
				current = model.NewServiceID(stage, owner.ResourceID, day)
				haveCurrent = true
			case day == dutyDayKey:
				// same UTC day: keep current duty.
			case act.Start.Sub(dutyStart) <= time.Duration(maxDutySpanMinutes)*time.Minute:
				// cross-midnight carry: keep current duty, seeded by the
				// first activity's day.
			default:
				dutyStart = act.Start
				dutyDayKey = day
				current = model.NewServiceID(stage, owner.ResourceID, day)
			}

			d := getOrCreate(current, owner)
			d.Activities = append(d.Activities, act)
		}
	}

	// Resolve managed/boundary activities to their parent duty.
	var orphaned []*model.Activity
	for _, act := range managedOrBoundary {
		owner, ok := act.PrimaryOwner()
		if !ok {
			orphaned = append(orphaned, act)
			continue
		}
		svc, ok := resolveManagedDuty(act, stage, owner.ResourceID)
		if !ok {
			orphaned = append(orphaned, act)
			continue
		}
		d := getOrCreate(svc, model.Owner{ResourceID: owner.ResourceID, Kind: owner.Kind})
		d.Activities = append(d.Activities, act)
	}

	out := make([]*model.Duty, 0, len(order))
	for _, svc := range order {
		d := duties[svc]
		model.SortActivitiesByStart(d.Activities)
		out = append(out, d)
	}

	return Result{Duties: out, Orphaned: orphaned, OutsideService: outsideService}
}

type ownerKey struct {
	id   string
	kind model.ParticipantKind
}

func isBoundary(act *model.Activity) bool {
	return act.ServiceRole == model.ServiceRoleStart || act.ServiceRole == model.ServiceRoleEnd
}

func utcDayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// overrideServiceID implements spec.md §4.3's override rule: "An activity
// whose own serviceId (or service_by_owner[owner].serviceId) matches the
// owner/stage overrides the derived assignment."
func overrideServiceID(act *model.Activity, stage model.Stage, ownerID string) (model.ServiceID, bool) {
	raw := act.ServiceID
	if raw == "" && act.Attributes != nil && act.Attributes.ServiceByOwner != nil {
		if entry, ok := act.Attributes.ServiceByOwner[ownerID]; ok {
			raw = entry.ServiceID
		}
	}
	if raw == "" {
		return model.ServiceID{}, false
	}
	svc, ok := model.ParseServiceID(raw)
	if !ok || svc.Stage != stage || svc.OwnerID != ownerID {
		return model.ServiceID{}, false
	}
	return svc, true
}

// resolveManagedDuty resolves a managed/boundary activity's duty by parsing
// its own managed id first, then its explicit serviceId, then falling back
// to the UTC day of its start. An activity whose parsed owner/stage
// disagrees with its owner candidate is rejected (ok=false) so the caller
// can mark it orphaned (spec.md §4.3).
func resolveManagedDuty(act *model.Activity, stage model.Stage, ownerID string) (model.ServiceID, bool) {
	if managedID, ok := model.ParseManagedID(act.ID); ok {
		if managedID.Service.Stage != stage || managedID.Service.OwnerID != ownerID {
			return model.ServiceID{}, false
		}
		return managedID.Service, true
	}
	if act.ServiceID != "" {
		svc, ok := model.ParseServiceID(act.ServiceID)
		if !ok || svc.Stage != stage || svc.OwnerID != ownerID {
			return model.ServiceID{}, false
		}
		return svc, true
	}
	return model.NewServiceID(stage, ownerID, utcDayKey(act.Start)), true
}
