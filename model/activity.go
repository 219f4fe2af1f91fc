// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package model defines the universal record types the duty autopilot reads
// and writes: activities, the duties it groups them into, and the typed
// attribute bag every activity carries.
package model

import (
	"sort"
	"strings"
	"time"
)

// ParticipantKind identifies what kind of resource a participant references.
type ParticipantKind string

const (
	KindPersonnel        ParticipantKind = "personnel"
	KindPersonnelService ParticipantKind = "personnel-service"
	KindVehicle          ParticipantKind = "vehicle"
	KindVehicleService   ParticipantKind = "vehicle-service"
)

// OwnerGroup is the coarse split used to pick boundary/break type ids.
type OwnerGroup string

const (
	OwnerGroupPersonnel OwnerGroup = "personnel"
	OwnerGroupVehicle   OwnerGroup = "vehicle"
)

// Group returns the OwnerGroup a participant kind belongs to.
func (k ParticipantKind) Group() OwnerGroup {
	switch k {
	case KindVehicle, KindVehicleService:
		return OwnerGroupVehicle
	default:
		return OwnerGroupPersonnel
	}
}

// IsService reports whether the participant kind is a *-service kind.
func (k ParticipantKind) IsService() bool {
	return k == KindPersonnelService || k == KindVehicleService
}

// Participant is one resource attached to an activity.
type Participant struct {
	ResourceID string          `json:"resourceId"`
	Kind       ParticipantKind `json:"kind"`
	Role       string          `json:"role,omitempty"`
}

// ServiceRole marks whether a managed activity anchors the start or end of
// a duty, or is a plain segment within it.
type ServiceRole string

const (
	ServiceRoleStart   ServiceRole = "start"
	ServiceRoleEnd     ServiceRole = "end"
	ServiceRoleSegment ServiceRole = "segment"
)

// WithinService narrows whether an activity should be grouped into a duty
// at all.
type WithinService string

const (
	WithinServiceWithin  WithinService = "within"
	WithinServiceOutside WithinService = "outside"
	WithinServiceBoth    WithinService = "both"
)

// ServiceConflictEntry is the per-owner annotation stored under
// attributes.service_by_owner[ownerId].
type ServiceConflictEntry struct {
	ServiceID        string              `json:"serviceId"`
	ConflictLevel     int                 `json:"conflictLevel"`
	ConflictCodes     []string            `json:"conflictCodes,omitempty"`
	ConflictDetails   map[string][]string `json:"conflictDetails,omitempty"`
}

// Attributes is the typed re-modeling of the free-form attributes map
// called for in spec.md §9: each reserved key becomes a field, with
// anything else falling into Extras so round-tripping never loses data.
type Attributes struct {
	ServiceByOwner       map[string]ServiceConflictEntry `json:"service_by_owner,omitempty"`
	ServiceConflictLevel int                              `json:"service_conflict_level,omitempty"`
	ServiceConflictCodes []string                         `json:"service_conflict_codes,omitempty"`
	ServiceConflictDetails map[string][]string            `json:"service_conflict_details,omitempty"`

	ManualServiceBoundary bool          `json:"manual_service_boundary,omitempty"`
	IsWithinService       WithinService `json:"is_within_service,omitempty"`

	IsBreak                  *bool `json:"is_break,omitempty"`
	IsShortBreak             *bool `json:"is_short_break,omitempty"`
	IsCommute                *bool `json:"is_commute,omitempty"`
	IsOvernight              *bool `json:"is_overnight,omitempty"`
	IsAbsence                *bool `json:"is_absence,omitempty"`
	IsServiceStart           *bool `json:"is_service_start,omitempty"`
	IsServiceEnd             *bool `json:"is_service_end,omitempty"`
	ConsiderCapacityConflicts *bool `json:"consider_capacity_conflicts,omitempty"`
	ConsiderLocationConflicts *bool `json:"consider_location_conflicts,omitempty"`
	DefaultDuration          *int  `json:"default_duration,omitempty"`

	Extras map[string]any `json:"-"`
}

// WithinOrDefault returns IsWithinService, defaulting to "both" per spec.md §3.
func (a *Attributes) WithinOrDefault() WithinService {
	if a == nil || a.IsWithinService == "" {
		return WithinServiceBoth
	}
	return a.IsWithinService
}

// Clone returns a deep-enough copy for safe mutation during a pipeline pass.
func (a *Attributes) Clone() *Attributes {
	if a == nil {
		return &Attributes{}
	}
	out := *a
	if a.ServiceByOwner != nil {
		out.ServiceByOwner = make(map[string]ServiceConflictEntry, len(a.ServiceByOwner))
		for k, v := range a.ServiceByOwner {
			cv := v
			cv.ConflictCodes = append([]string(nil), v.ConflictCodes...)
			if v.ConflictDetails != nil {
				cv.ConflictDetails = make(map[string][]string, len(v.ConflictDetails))
				for dk, dv := range v.ConflictDetails {
					cv.ConflictDetails[dk] = append([]string(nil), dv...)
				}
			}
			out.ServiceByOwner[k] = cv
		}
	}
	out.ServiceConflictCodes = append([]string(nil), a.ServiceConflictCodes...)
	if a.ServiceConflictDetails != nil {
		out.ServiceConflictDetails = make(map[string][]string, len(a.ServiceConflictDetails))
		for k, v := range a.ServiceConflictDetails {
			out.ServiceConflictDetails[k] = append([]string(nil), v...)
		}
	}
	if a.Extras != nil {
		out.Extras = make(map[string]any, len(a.Extras))
		for k, v := range a.Extras {
			out.Extras[k] = v
		}
	}
	return &out
}

// Activity is the universal record: every field besides ID and Start is optional.
type Activity struct {
	ID    string     `json:"id"`
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`

	Type string `json:"type,omitempty"`

	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	LocationID    string `json:"locationId,omitempty"`
	LocationLabel string `json:"locationLabel,omitempty"`

	Participants []Participant `json:"participants,omitempty"`

	ServiceID   string      `json:"serviceId,omitempty"`
	ServiceRole ServiceRole `json:"serviceRole,omitempty"`

	Attributes *Attributes `json:"attributes,omitempty"`
}

// EndOrDefault resolves End, falling back to attributes.default_duration
// minutes, or zero duration, per spec.md §3.
func (a *Activity) EndOrDefault() time.Time {
	if a.End != nil {
		return *a.End
	}
	if a.Attributes != nil && a.Attributes.DefaultDuration != nil {
		return a.Start.Add(time.Duration(*a.Attributes.DefaultDuration) * time.Minute)
	}
	return a.Start
}

// StartLocation resolves the start-location reference using the order
// locationId -> from -> locationLabel -> to (spec.md §3).
func (a *Activity) StartLocation() string {
	return firstNonEmpty(a.LocationID, a.From, a.LocationLabel, a.To)
}

// EndLocation resolves the end-location reference with the same precedence,
// mirrored: locationId -> to -> locationLabel -> from.
func (a *Activity) EndLocation() string {
	return firstNonEmpty(a.LocationID, a.To, a.LocationLabel, a.From)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// PrimaryOwner returns the owner participant for grouping purposes:
// service-kind participants take precedence; personnel/vehicle are used
// only when no service participant is present (spec.md §3).
func (a *Activity) PrimaryOwner() (Participant, bool) {
	var fallback Participant
	haveFallback := false
	for _, p := range a.Participants {
		if p.Kind.IsService() {
			return p, true
		}
		if !haveFallback {
			fallback = p
			haveFallback = true
		}
	}
	return fallback, haveFallback
}

// OwnerIDs returns every resource id attached as a participant, in order.
func (a *Activity) OwnerIDs() []string {
	ids := make([]string, 0, len(a.Participants))
	for _, p := range a.Participants {
		ids = append(ids, p.ResourceID)
	}
	return ids
}

// IsManagedID reports whether the id matches one of the managed-id prefixes
// from spec.md §3/§6.
func IsManagedID(id string) bool {
	for _, prefix := range []string{"svcstart:", "svcend:", "svcbreak:", "svcshortbreak:", "svccommute:"} {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// SortActivitiesByStart orders activities by (startMs, endMs, id), the
// processing order required throughout the pipeline (spec.md §5).
func SortActivitiesByStart(acts []*Activity) {
	sort.SliceStable(acts, func(i, j int) bool {
		ai, aj := acts[i], acts[j]
		if !ai.Start.Equal(aj.Start) {
			return ai.Start.Before(aj.Start)
		}
		ei, ej := ai.EndOrDefault(), aj.EndOrDefault()
		if !ei.Equal(ej) {
			return ei.Before(ej)
		}
		return ai.ID < aj.ID
	})
}
