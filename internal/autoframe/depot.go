// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package autoframe

import (
	"time"

	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// missingWalkPenaltyMinutes stands in for an unknown walk time when ranking
// depot sites — large enough that any site with a real walk time on both
// legs always wins, per spec.md §4.4.3 ("treating missing walk times as a
// large penalty but still counting").
const missingWalkPenaltyMinutes = 24 * 60

// selectHomeDepot resolves the owner's home depot via the master-data
// index (spec.md §4.4.3).
func selectHomeDepot(duty *model.Duty, idx *store.Index) (*store.HomeDepot, []conflict.Code, map[string][]string) {
	depot, ok := idx.HomeDepotFor(duty.Owner.ResourceID)
	if !ok {
		return nil, []conflict.Code{conflict.CodeHomeDepotNotFound}, map[string][]string{
			string(conflict.CodeHomeDepotNotFound): {"owner " + duty.Owner.ResourceID + " has no home depot pool"},
		}
	}
	return &depot, nil, map[string][]string{}
}

// selectBoundarySite picks the depot site minimizing the combined walk time
// to the duty's first operational point and from its last (spec.md §4.4.3).
func selectBoundarySite(duty *model.Duty, idx *store.Index, depot store.HomeDepot, windowStart, windowEnd time.Time) (string, []conflict.Code, map[string][]string) {
	var codes []conflict.Code
	details := map[string][]string{}

	payload := duty.Payload()
	if len(payload) == 0 {
		return "", codes, details
	}

	startOp := payload[0].StartLocation()
	var endOp string
	var latestEnd time.Time
	for i, act := range payload {
		actEnd := act.EndOrDefault()
		if i == 0 || actEnd.After(latestEnd) {
			latestEnd = actEnd
			endOp = act.EndLocation()
		}
	}

	if startOp == "" {
		codes = append(codes, conflict.CodeHomeDepotStartLocationMissing)
	}
	if endOp == "" {
		codes = append(codes, conflict.CodeHomeDepotEndLocationMissing)
	}

	if len(depot.SiteIDs) == 0 {
		codes = append(codes, conflict.CodeHomeDepotNoSites)
		return "", codes, details
	}

	var bestSite string
	bestTotal := -1
	anyInOk, anyOutOk := false, false

	for _, siteID := range sortedKeys(depot.SiteIDs) {
		in := missingWalkPenaltyMinutes
		if startOp != "" {
			if minutes, ok := idx.WalkTimes.Lookup(store.PersonnelSiteNode(siteID), store.OPNode(startOp)); ok {
				in = minutes
				anyInOk = true
			}
		}
		out := missingWalkPenaltyMinutes
		if endOp != "" {
			if minutes, ok := idx.WalkTimes.Lookup(store.OPNode(endOp), store.PersonnelSiteNode(siteID)); ok {
				out = minutes
				anyOutOk = true
			}
		}
		total := in + out
		if bestTotal == -1 || total < bestTotal {
			bestTotal = total
			bestSite = siteID
		}
	}

	if startOp != "" && !anyInOk {
		codes = append(codes, conflict.CodeWalkTimeMissingStart)
	}
	if endOp != "" && !anyOutOk {
		codes = append(codes, conflict.CodeWalkTimeMissingEnd)
	}
	if bestSite == "" {
		codes = append(codes, conflict.CodeHomeDepotSiteNotFound)
	}

	return bestSite, codes, details
}
