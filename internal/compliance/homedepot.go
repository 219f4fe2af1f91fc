// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package compliance

import (
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// isHomeDepotCode identifies the HOME_DEPOT_*/WALK_TIME_* family this
// pass owns exclusively — spec.md §4.5: "purges only HOME_DEPOT_*/
// WALK_TIME_* codes before merging new findings, preserving other codes
// written by earlier passes."
func isHomeDepotCode(c conflict.Code) bool {
	s := string(c)
	return len(s) >= 11 && (s[:11] == "HOME_DEPOT_" || (len(s) >= 10 && s[:10] == "WALK_TIME_"))
}

// HomeDepotCompliance looks up each duty owner's home depot and records
// allowed-site mismatches for start, end, breaks, short-breaks, and
// overnight activities (spec.md §4.5). The depot is taken from the owner's
// master data; it is not re-selected from the duty's payload.
func HomeDepotCompliance(duties []*model.Duty, idx *store.Index) {
	for _, duty := range duties {
		for _, act := range duty.Activities {
			conflict.PurgeCodes(act, isHomeDepotCode)
		}

		depot, ok := idx.HomeDepotFor(duty.Owner.ResourceID)
		if !ok {
			annotateAll(duty, conflict.CodeHomeDepotNotFound)
			continue
		}

		if sb := duty.Boundary(model.ManagedRoleStart); sb != nil {
			checkSite(duty, sb, depot.SiteIDs)
		}
		if eb := duty.Boundary(model.ManagedRoleEnd); eb != nil {
			checkSite(duty, eb, depot.SiteIDs)
		}

		for _, act := range duty.Managed() {
			if act.Attributes == nil {
				continue
			}
			if boolAttr(act.Attributes.IsBreak) {
				checkSite(duty, act, depot.BreakSiteIDs)
			}
			if boolAttr(act.Attributes.IsShortBreak) {
				checkSite(duty, act, depot.ShortBreakSiteIDs)
			}
			if boolAttr(act.Attributes.IsOvernight) {
				checkOvernightSite(duty, act, depot.OvernightSiteIDs)
			}
		}
	}
}

func boolAttr(p *bool) bool { return p != nil && *p }

func checkSite(duty *model.Duty, act *model.Activity, allowed map[string]struct{}) {
	site := act.StartLocation()
	if act.ServiceRole == model.ServiceRoleEnd {
		site = act.EndLocation()
	}
	if site == "" {
		return
	}
	if !store.HasSite(allowed, site) {
		annotateOne(duty, act, conflict.CodeHomeDepotNotInDepot)
	}
}

func checkOvernightSite(duty *model.Duty, act *model.Activity, allowed map[string]struct{}) {
	site := act.StartLocation()
	if site == "" {
		annotateOne(duty, act, conflict.CodeHomeDepotOvernightLocationMissing)
		return
	}
	if !store.HasSite(allowed, site) {
		annotateOne(duty, act, conflict.CodeHomeDepotOvernightSiteForbidden)
	}
}

func annotateAll(duty *model.Duty, code conflict.Code) {
	for _, act := range duty.Activities {
		annotateOne(duty, act, code)
	}
}

func annotateOne(duty *model.Duty, act *model.Activity, code conflict.Code) {
	existing := []conflict.Code{}
	if act.Attributes != nil {
		if entry, ok := act.Attributes.ServiceByOwner[duty.Owner.ResourceID]; ok {
			for _, c := range entry.ConflictCodes {
				existing = append(existing, conflict.Code(c))
			}
		}
	}
	conflict.Apply(act, conflict.Annotation{
		OwnerID:   duty.Owner.ResourceID,
		ServiceID: duty.ServiceID.String(),
		Codes:     append(existing, code),
	})
}
