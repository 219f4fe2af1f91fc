// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package normalize implements the Metadata Normalizer (spec.md §4.2): for
// every non-managed, non-boundary activity it clears a stale serviceId and
// shrinks service_by_owner to the owners actually still listed on the
// activity, dropping the mapping entirely when the activity opted itself
// out of grouping.
package normalize

import (
	"github.com/kron12345/coreplanx/model"
)

// Normalize mutates acts in place, per spec.md §4.2. It is idempotent:
// running it twice on its own output is a no-op.
func Normalize(acts []*model.Activity) {
	for _, act := range acts {
		if model.IsManagedID(act.ID) {
			continue
		}
		if act.ServiceRole == model.ServiceRoleStart || act.ServiceRole == model.ServiceRoleEnd {
			continue
		}

		act.ServiceID = ""

		if act.Attributes == nil || act.Attributes.ServiceByOwner == nil {
			continue
		}

		if act.Attributes.WithinOrDefault() == model.WithinServiceOutside {
			act.Attributes.ServiceByOwner = nil
			continue
		}

		owners := make(map[string]struct{}, len(act.Participants))
		for _, p := range act.Participants {
			owners[p.ResourceID] = struct{}{}
		}

		for ownerID := range act.Attributes.ServiceByOwner {
			if _, ok := owners[ownerID]; !ok {
				delete(act.Attributes.ServiceByOwner, ownerID)
			}
		}
		if len(act.Attributes.ServiceByOwner) == 0 {
			act.Attributes.ServiceByOwner = nil
		}
	}
}
