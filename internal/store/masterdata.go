// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package store

import "fmt"

// Snapshot is the immutable master-data view a MasterDataStore hands back
// for the duration of one apply call (spec.md §5).
type Snapshot struct {
	Personnel         []Personnel
	Vehicles          []Vehicle
	HomeDepots        []HomeDepot
	PersonnelSites    []PersonnelSite
	OperationalPoints []OperationalPoint
	WalkTimes         WalkTimeIndex
}

// Personnel is a personnel resource and the home-depot pool it draws from.
type Personnel struct {
	ResourceID  string
	HomeDepotID string
}

// Vehicle is a vehicle resource and the home-depot pool it draws from.
type Vehicle struct {
	ResourceID  string
	HomeDepotID string
}

// HomeDepot is a resource-pool-derived location group carrying the four
// allowed site-id sets spec.md §4.4.3 / GLOSSARY describe.
type HomeDepot struct {
	ID string

	// SiteIDs are the sites a duty boundary (start/end) may be placed at.
	SiteIDs map[string]struct{}

	// BreakSiteIDs are the sites a regular break may be placed at.
	BreakSiteIDs map[string]struct{}

	// ShortBreakSiteIDs are the sites a short break may be placed at.
	ShortBreakSiteIDs map[string]struct{}

	// OvernightSiteIDs are the sites an overnight activity may be placed at.
	OvernightSiteIDs map[string]struct{}
}

// HasSite reports whether siteID is in the given allowed-site set.
func HasSite(set map[string]struct{}, siteID string) bool {
	_, ok := set[siteID]
	return ok
}

// PersonnelSite is a physical site a home depot may reference.
type PersonnelSite struct {
	ID             string
	OperationalPointID string
}

// OperationalPoint is a transfer node (station, stop) in the network.
type OperationalPoint struct {
	ID string
}

// NodeKind distinguishes the three walk-time node namespaces spec.md §4.4.3
// defines: operational points, personnel sites, and replacement stops.
type NodeKind string

const (
	NodeKindOperationalPoint NodeKind = "OP"
	NodeKindPersonnelSite    NodeKind = "PERSONNEL_SITE"
	NodeKindReplacementStop  NodeKind = "REPLACEMENT_STOP"
)

// Node is one endpoint of a walk-time edge.
type Node struct {
	Kind NodeKind
	ID   string
}

// String renders the "KIND:id" encoding the walk-time index keys on.
func (n Node) String() string {
	return fmt.Sprintf("%s:%s", n.Kind, n.ID)
}

// OPNode builds an operational-point node.
func OPNode(id string) Node { return Node{Kind: NodeKindOperationalPoint, ID: id} }

// PersonnelSiteNode builds a personnel-site node.
func PersonnelSiteNode(id string) Node { return Node{Kind: NodeKindPersonnelSite, ID: id} }

// ReplacementStopNode builds a replacement-stop node.
func ReplacementStopNode(id string) Node { return Node{Kind: NodeKindReplacementStop, ID: id} }

// WalkTimeIndex is the `(FromNode|ToNode)` keyed walk-time table spec.md
// §4.4.3 describes. Edges that are bidirectional in the source data must
// have both directions populated by the store/fixture builder; the index
// itself performs no inference.
type WalkTimeIndex map[string]map[string]int // minutes, keyed by from.String() -> to.String()

// Lookup returns the walk time in minutes between from and to, and whether
// an entry exists.
func (w WalkTimeIndex) Lookup(from, to Node) (int, bool) {
	byTo, ok := w[from.String()]
	if !ok {
		return 0, false
	}
	minutes, ok := byTo[to.String()]
	return minutes, ok
}

// Set records a directed walk-time edge. Callers populate both directions
// themselves when an edge is bidirectional.
func (w WalkTimeIndex) Set(from, to Node, minutes int) {
	byTo, ok := w[from.String()]
	if !ok {
		byTo = make(map[string]int)
		w[from.String()] = byTo
	}
	byTo[to.String()] = minutes
}
