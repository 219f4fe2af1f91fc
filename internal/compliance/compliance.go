// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package compliance implements the three whole-input passes from
// spec.md §4.5: local conflicts, home-depot validation, and AZG
// labor-law compliance. Each pass is idempotent and order-insensitive
// across the input, and writes only the structured conflict metadata.
package compliance

import (
	"github.com/kron12345/coreplanx/internal/interval"
	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// Run executes all three compliance passes over the full activity set,
// grouped into duties by the caller (internal/group). outsideService holds
// payload activities the Grouper routed aside instead of into any duty
// (is_within_service = "outside"); they still participate in local-conflict
// detection, annotated with serviceId = "" (spec.md §9's within-service
// design note), but never in the home-depot or AZG passes, which are
// inherently duty-scoped.
func Run(duties []*model.Duty, outsideService []*model.Activity, rc *resolve.ResolvedConfig, idx *store.Index) {
	LocalConflicts(duties, outsideService)
	HomeDepotCompliance(duties, idx)
	AZGCompliance(duties, rc)
}

// LocalConflicts recomputes capacity and location conflicts globally per
// owner, catching conflicts across duty boundaries (spec.md §4.5). In-service
// payload activities get a duty-scoped annotation and retain their per-duty
// assignment; managed activities (boundaries, breaks, commutes) are not
// annotated by this pass. outsideService activities carry no duty at all and are annotated with
// serviceId = "" alongside the rest of their owner's activities.
func LocalConflicts(duties []*model.Duty, outsideService []*model.Activity) {
	byOwner := make(map[string][]*model.Activity)
	for _, d := range duties {
		for _, a := range d.Payload() {
			byOwner[d.Owner.ResourceID] = append(byOwner[d.Owner.ResourceID], a)
		}
	}
	for _, a := range outsideService {
		owner, ok := a.PrimaryOwner()
		if !ok {
			continue
		}
		byOwner[owner.ResourceID] = append(byOwner[owner.ResourceID], a)
	}

	for ownerID, acts := range byOwner {
		model.SortActivitiesByStart(acts)
		codesByAct := make(map[*model.Activity][]conflict.Code)
		detailsByAct := make(map[*model.Activity]map[string][]string)

		for i := 0; i < len(acts); i++ {
			for j := i + 1; j < len(acts); j++ {
				a, b := acts[i], acts[j]
				ivA := interval.Interval{StartMs: a.Start.UnixMilli(), EndMs: a.EndOrDefault().UnixMilli()}
				ivB := interval.Interval{StartMs: b.Start.UnixMilli(), EndMs: b.EndOrDefault().UnixMilli()}
				if !ivA.Overlaps(ivB) {
					continue
				}
				codesByAct[a] = append(codesByAct[a], conflict.CodeCapacityOverlap)
				codesByAct[b] = append(codesByAct[b], conflict.CodeCapacityOverlap)
				addDetail(detailsByAct, a, conflict.CodeCapacityOverlap, b.ID)
				addDetail(detailsByAct, b, conflict.CodeCapacityOverlap, a.ID)
			}
		}

		for i := 0; i+1 < len(acts); i++ {
			cur, next := acts[i], acts[i+1]
			if !optedIntoLocationConflicts(cur) || !optedIntoLocationConflicts(next) {
				continue
			}
			if cur.To != "" && next.From != "" && cur.To != next.From {
				codesByAct[cur] = append(codesByAct[cur], conflict.CodeLocationSequence)
				codesByAct[next] = append(codesByAct[next], conflict.CodeLocationSequence)
				addDetail(detailsByAct, cur, conflict.CodeLocationSequence, next.ID)
			}
		}

		for _, act := range acts {
			serviceID := act.ServiceID
			if serviceID == "" && act.Attributes != nil && act.Attributes.ServiceByOwner != nil {
				if entry, ok := act.Attributes.ServiceByOwner[ownerID]; ok {
					serviceID = entry.ServiceID
				}
			}
			conflict.Apply(act, conflict.Annotation{
				OwnerID:   ownerID,
				ServiceID: serviceID,
				Codes:     codesByAct[act],
				Details:   detailsByAct[act],
			})
		}
	}
}

func optedIntoLocationConflicts(act *model.Activity) bool {
	return act.Attributes != nil && act.Attributes.ConsiderLocationConflicts != nil && *act.Attributes.ConsiderLocationConflicts
}

func addDetail(m map[*model.Activity]map[string][]string, act *model.Activity, code conflict.Code, detail string) {
	if m[act] == nil {
		m[act] = make(map[string][]string)
	}
	m[act][string(code)] = append(m[act][string(code)], detail)
}
