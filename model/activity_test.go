// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEndOrDefaultFallsBackToDefaultDuration(t *testing.T) {
	dur := 45
	a := &Activity{
		Start:      mustTime("2025-01-01T08:00:00Z"),
		Attributes: &Attributes{DefaultDuration: &dur},
	}
	assert.Equal(t, mustTime("2025-01-01T08:45:00Z"), a.EndOrDefault())
}

func TestEndOrDefaultZeroWithoutHint(t *testing.T) {
	a := &Activity{Start: mustTime("2025-01-01T08:00:00Z")}
	assert.Equal(t, a.Start, a.EndOrDefault())
}

func TestLocationResolutionOrder(t *testing.T) {
	a := &Activity{
		From:          "A",
		To:            "B",
		LocationLabel: "Label",
	}
	assert.Equal(t, "A", a.StartLocation())
	assert.Equal(t, "B", a.EndLocation())

	a.LocationID = "LOC"
	assert.Equal(t, "LOC", a.StartLocation())
	assert.Equal(t, "LOC", a.EndLocation())
}

func TestPrimaryOwnerPrefersServiceParticipant(t *testing.T) {
	a := &Activity{
		Participants: []Participant{
			{ResourceID: "PS-1", Kind: KindPersonnel},
			{ResourceID: "svc:base:PS-1:2025-01-01", Kind: KindPersonnelService},
		},
	}
	owner, ok := a.PrimaryOwner()
	assert.True(t, ok)
	assert.Equal(t, KindPersonnelService, owner.Kind)
}

func TestSortActivitiesByStartTieBreaksOnID(t *testing.T) {
	t0 := mustTime("2025-01-01T08:00:00Z")
	acts := []*Activity{
		{ID: "b", Start: t0},
		{ID: "a", Start: t0},
	}
	SortActivitiesByStart(acts)
	assert.Equal(t, "a", acts[0].ID)
	assert.Equal(t, "b", acts[1].ID)
}
