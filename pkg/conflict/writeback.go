// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package conflict

import (
	"github.com/kron12345/coreplanx/model"
)

// Annotation is one pass's finding for a single owner on a single activity:
// a serviceId (or empty/"" for an ungrouped activity per spec.md §9's
// within-service note) plus the codes/details that owner contributed.
type Annotation struct {
	OwnerID string
	ServiceID string
	Codes   []Code
	Details map[string][]string
}

// Apply writes ann into act.Attributes.ServiceByOwner[ann.OwnerID],
// replacing whatever that owner previously held, then recomputes the
// global service_conflict_level/codes/details fields as the max/union/merge
// across every owner entry (spec.md §4.4.7).
func Apply(act *model.Activity, ann Annotation) {
	if act.Attributes == nil {
		act.Attributes = &model.Attributes{}
	}
	if act.Attributes.ServiceByOwner == nil {
		act.Attributes.ServiceByOwner = make(map[string]model.ServiceConflictEntry)
	}

	codes := SortedUnique(ann.Codes)
	strCodes := make([]string, len(codes))
	for i, c := range codes {
		strCodes[i] = string(c)
	}

	act.Attributes.ServiceByOwner[ann.OwnerID] = model.ServiceConflictEntry{
		ServiceID:       ann.ServiceID,
		ConflictLevel:   int(MaxLevel(codes)),
		ConflictCodes:   strCodes,
		ConflictDetails: ann.Details,
	}

	recomputeGlobal(act)
}

// PurgeCodes removes every code for which matches returns true from every owner's
// ConflictCodes/ConflictDetails (and the matching detail keys), then
// recomputes the global fields. Used by the home-depot compliance pass,
// which "purges only HOME_DEPOT_*/WALK_TIME_* codes before merging new
// findings, preserving other codes written by earlier passes" (spec.md §4.5).
func PurgeCodes(act *model.Activity, matches func(Code) bool) {
	if act.Attributes == nil || act.Attributes.ServiceByOwner == nil {
		return
	}
	for owner, entry := range act.Attributes.ServiceByOwner {
		kept := entry.ConflictCodes[:0:0]
		for _, c := range entry.ConflictCodes {
			if !matches(Code(c)) {
				kept = append(kept, c)
			}
		}
		entry.ConflictCodes = kept
		if entry.ConflictDetails != nil {
			for k := range entry.ConflictDetails {
				if matches(Code(k)) {
					delete(entry.ConflictDetails, k)
				}
			}
		}
		codes := make([]Code, len(kept))
		for i, c := range kept {
			codes[i] = Code(c)
		}
		entry.ConflictLevel = int(MaxLevel(codes))
		act.Attributes.ServiceByOwner[owner] = entry
	}
	recomputeGlobal(act)
}

func recomputeGlobal(act *model.Activity) {
	var allCodes []Code
	var maxLevel Level
	detailMaps := make([]map[string][]string, 0, len(act.Attributes.ServiceByOwner))
	for _, entry := range act.Attributes.ServiceByOwner {
		for _, c := range entry.ConflictCodes {
			allCodes = append(allCodes, Code(c))
		}
		if Level(entry.ConflictLevel) > maxLevel {
			maxLevel = Level(entry.ConflictLevel)
		}
		if entry.ConflictDetails != nil {
			detailMaps = append(detailMaps, entry.ConflictDetails)
		}
	}
	unique := SortedUnique(allCodes)
	strCodes := make([]string, len(unique))
	for i, c := range unique {
		strCodes[i] = string(c)
	}
	act.Attributes.ServiceConflictLevel = int(maxLevel)
	act.Attributes.ServiceConflictCodes = strCodes
	act.Attributes.ServiceConflictDetails = MergeDetails(detailMaps...)
}
