// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package model

// Owner identifies the resource anchoring a Duty.
type Owner struct {
	ResourceID string
	Kind       ParticipantKind
}

// Group returns which boundary-type group (personnel/vehicle) the owner falls into.
func (o Owner) Group() OwnerGroup {
	return o.Kind.Group()
}

// Duty is one owner's work on one logical day: the synthesized container
// spec.md §3 describes. It is never persisted as such; it exists only for
// the duration of the autoframer/compliance passes and is rebuilt from the
// working activity map on every call.
type Duty struct {
	ServiceID  ServiceID
	Owner      Owner
	DayKey     string
	Activities []*Activity
}

// isManagedOrBoundary reports whether a counts as a managed/boundary
// activity for Payload/Managed purposes: either its id follows one of the
// managed-id grammars, or it carries an explicit start/end ServiceRole
// (a pre-existing, non-canonically-named boundary the autoframer must
// still reconcile away per spec.md §4.4.2).
func isManagedOrBoundary(a *Activity) bool {
	return IsManagedID(a.ID) || a.ServiceRole == ServiceRoleStart || a.ServiceRole == ServiceRoleEnd
}

// Payload returns the non-managed activities in the duty.
func (d *Duty) Payload() []*Activity {
	out := make([]*Activity, 0, len(d.Activities))
	for _, a := range d.Activities {
		if !isManagedOrBoundary(a) {
			out = append(out, a)
		}
	}
	return out
}

// Managed returns the synthesized (boundary/break/commute) activities.
func (d *Duty) Managed() []*Activity {
	out := make([]*Activity, 0, len(d.Activities))
	for _, a := range d.Activities {
		if isManagedOrBoundary(a) {
			out = append(out, a)
		}
	}
	return out
}

// Boundary returns the start or end boundary activity, if present.
func (d *Duty) Boundary(role ManagedRole) *Activity {
	want := BoundaryID(role, d.ServiceID)
	for _, a := range d.Activities {
		if a.ID == want {
			return a
		}
	}
	return nil
}
