// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package autoframe implements the per-duty Autoframer (spec.md §4.4), the
// largest single component of the pipeline: it derives the duty window,
// reconciles managed boundaries, selects a home depot, synthesizes
// commutes, plans breaks, and emits the worktime/location/home-depot
// conflict codes for one duty at a time.
package autoframe

import (
	"sort"
	"time"

	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// Result is what running the autoframer on one duty produces.
type Result struct {
	Upserts    []*model.Activity
	DeletedIDs []string
	ManagedIDs map[string]struct{}
}

// Frame runs the full per-duty autoframer pipeline (spec.md §4.4.1-§4.4.7).
func Frame(duty *model.Duty, rc *resolve.ResolvedConfig, idx *store.Index) Result {
	res := Result{ManagedIDs: make(map[string]struct{})}

	windowStart, windowEnd := dutyWindow(duty)

	startBoundary, endBoundary, deleted := reconcileBoundaries(duty, rc)
	res.DeletedIDs = append(res.DeletedIDs, deleted...)

	depot, depotCodes, depotDetails := selectHomeDepot(duty, idx)

	if depot != nil {
		site, siteCodes, siteDetails := selectBoundarySite(duty, idx, *depot, windowStart, windowEnd)
		depotCodes = append(depotCodes, siteCodes...)
		for k, v := range siteDetails {
			depotDetails[k] = append(depotDetails[k], v...)
		}
		if site != "" && !startBoundary.Attributes.ManualServiceBoundary {
			applyDepotSite(startBoundary, site)
		}
		if site != "" && !endBoundary.Attributes.ManualServiceBoundary {
			applyDepotSite(endBoundary, site)
		}
	}

	if startBoundary.Start.After(windowStart) {
		startBoundary.Start = windowStart
	}
	endEnd := endBoundary.EndOrDefault()
	if endEnd.Before(windowEnd) {
		end := windowEnd
		endBoundary.Start = windowEnd
		endBoundary.End = &end
	}

	commutes, commuteCodes := synthesizeCommutes(duty, idx, depot, &windowStart, &windowEnd, startBoundary, endBoundary)

	res.Upserts = append(res.Upserts, startBoundary, endBoundary)
	res.ManagedIDs[startBoundary.ID] = struct{}{}
	res.ManagedIDs[endBoundary.ID] = struct{}{}
	for _, c := range commutes {
		res.Upserts = append(res.Upserts, c)
		res.ManagedIDs[c.ID] = struct{}{}
	}

	var breakActs []*model.Activity
	var breakCodes []conflict.Code
	if duty.Owner.Group() == model.OwnerGroupPersonnel {
		var priorDeleted []string
		breakActs, breakCodes, priorDeleted = planBreaks(duty, rc, idx, depot, startBoundary, endBoundary, commutes)
		res.DeletedIDs = append(res.DeletedIDs, priorDeleted...)
	}
	for _, b := range breakActs {
		res.Upserts = append(res.Upserts, b)
		res.ManagedIDs[b.ID] = struct{}{}
	}

	// Any previously-managed id belonging to this duty that isn't in the
	// fresh ManagedIDs set is superseded (spec.md §4.4.5).
	for _, act := range duty.Managed() {
		if _, kept := res.ManagedIDs[act.ID]; !kept {
			res.DeletedIDs = append(res.DeletedIDs, act.ID)
		}
	}

	allWork := append([]*model.Activity{startBoundary, endBoundary}, duty.Payload()...)
	allWork = append(allWork, commutes...)

	codes, details := emitConflicts(duty, rc, allWork, breakActs, windowStart, windowEnd)
	codes = append(codes, depotCodes...)
	codes = append(codes, commuteCodes...)
	codes = append(codes, breakCodes...)
	for k, v := range depotDetails {
		details[k] = append(details[k], v...)
	}

	ann := conflict.Annotation{
		OwnerID:   duty.Owner.ResourceID,
		ServiceID: duty.ServiceID.String(),
		Codes:     codes,
		Details:   details,
	}
	for _, act := range res.Upserts {
		conflict.Apply(act, ann)
	}
	for _, act := range duty.Payload() {
		conflict.Apply(act, ann)
		res.Upserts = append(res.Upserts, act)
	}

	return res
}

// dutyWindow computes [dutyStart, dutyEnd) per spec.md §4.4.1: the min/max
// of payload start/end, widened (never narrowed) by a manual boundary.
func dutyWindow(duty *model.Duty) (time.Time, time.Time) {
	payload := duty.Payload()
	var start, end time.Time
	for i, act := range payload {
		if i == 0 || act.Start.Before(start) {
			start = act.Start
		}
		actEnd := act.EndOrDefault()
		if i == 0 || actEnd.After(end) {
			end = actEnd
		}
	}
	if len(payload) == 0 {
		start = duty.Activities[0].Start
		end = start
	}

	if sb := duty.Boundary(model.ManagedRoleStart); sb != nil && sb.Attributes != nil && sb.Attributes.ManualServiceBoundary {
		if sb.Start.Before(start) {
			start = sb.Start
		}
	}
	if eb := duty.Boundary(model.ManagedRoleEnd); eb != nil && eb.Attributes != nil && eb.Attributes.ManualServiceBoundary {
		if e := eb.EndOrDefault(); e.After(end) {
			end = e
		}
	}
	return start, end
}

// reconcileBoundaries keeps at most one start/end boundary bearing the
// canonical svcstart:<svc>/svcend:<svc> id, discarding any other
// pre-existing boundary (spec.md §4.4.2).
func reconcileBoundaries(duty *model.Duty, rc *resolve.ResolvedConfig) (start, end *model.Activity, deleted []string) {
	canonicalStartID := model.BoundaryID(model.ManagedRoleStart, duty.ServiceID)
	canonicalEndID := model.BoundaryID(model.ManagedRoleEnd, duty.ServiceID)

	typeID := rc.StartTypeIDByOwnerGroup[duty.Owner.Group()]
	endTypeID := rc.EndTypeIDByOwnerGroup[duty.Owner.Group()]

	for _, act := range duty.Managed() {
		if act.ServiceRole != model.ServiceRoleStart && act.ServiceRole != model.ServiceRoleEnd {
			continue
		}
		switch act.ID {
		case canonicalStartID:
			start = act
		case canonicalEndID:
			end = act
		default:
			deleted = append(deleted, act.ID)
		}
	}

	if start == nil {
		start = &model.Activity{
			ID:          canonicalStartID,
			Start:       duty.Activities[0].Start,
			Type:        typeID,
			ServiceID:   duty.ServiceID.String(),
			ServiceRole: model.ServiceRoleStart,
			Attributes:  &model.Attributes{},
		}
	}
	if end == nil {
		endTime := duty.Activities[0].Start
		end = &model.Activity{
			ID:          canonicalEndID,
			Start:       endTime,
			End:         &endTime,
			Type:        endTypeID,
			ServiceID:   duty.ServiceID.String(),
			ServiceRole: model.ServiceRoleEnd,
			Attributes:  &model.Attributes{},
		}
	}
	if start.Attributes == nil {
		start.Attributes = &model.Attributes{}
	}
	if end.Attributes == nil {
		end.Attributes = &model.Attributes{}
	}
	start.ServiceID = duty.ServiceID.String()
	end.ServiceID = duty.ServiceID.String()
	start.Type = typeID
	end.Type = endTypeID
	start.ServiceRole = model.ServiceRoleStart
	end.ServiceRole = model.ServiceRoleEnd
	return start, end, deleted
}

func applyDepotSite(act *model.Activity, siteID string) {
	if act.ServiceRole == model.ServiceRoleStart {
		act.To = siteID
		act.LocationID = siteID
	} else {
		act.From = siteID
		act.LocationID = siteID
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

