// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
)

func svcPayload(id string, day string, startHour, endHour int) *model.Activity {
	start := time.Date(2025, 1, 1, startHour, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, endHour, 0, 0, 0, time.UTC)
	return &model.Activity{
		ID:    id,
		Start: start,
		End:   &end,
		Participants: []model.Participant{
			{ResourceID: "PS-1", Kind: model.KindPersonnel},
		},
	}
}

func TestLocalConflictsFlagsCapacityOverlapAcrossDuties(t *testing.T) {
	a := svcPayload("a1", "2025-01-01", 8, 10)
	b := svcPayload("a2", "2025-01-01", 9, 11)

	dutyA := &model.Duty{
		ServiceID:  model.NewServiceID(model.StageBase, "PS-1", "2025-01-01"),
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		Activities: []*model.Activity{a},
	}
	dutyB := &model.Duty{
		ServiceID:  model.NewServiceID(model.StageBase, "PS-1", "2025-01-02"),
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		Activities: []*model.Activity{b},
	}

	LocalConflicts([]*model.Duty{dutyA, dutyB}, nil)

	require.NotNil(t, a.Attributes)
	entry, ok := a.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Contains(t, entry.ConflictCodes, "CAPACITY_OVERLAP")
}

func TestLocalConflictsAnnotatesOutsideServiceActivityWithNoServiceID(t *testing.T) {
	inService := svcPayload("a1", "2025-01-01", 8, 10)
	dutyA := &model.Duty{
		ServiceID:  model.NewServiceID(model.StageBase, "PS-1", "2025-01-01"),
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		Activities: []*model.Activity{inService},
	}

	outside := svcPayload("a2", "2025-01-01", 9, 11)
	outside.Attributes = &model.Attributes{IsWithinService: model.WithinServiceOutside}

	LocalConflicts([]*model.Duty{dutyA}, []*model.Activity{outside})

	require.NotNil(t, outside.Attributes)
	entry, ok := outside.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Equal(t, "", entry.ServiceID)
	assert.Contains(t, entry.ConflictCodes, "CAPACITY_OVERLAP")

	inEntry, ok := inService.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Contains(t, inEntry.ConflictCodes, "CAPACITY_OVERLAP")
}

func TestHomeDepotComplianceAnnotatesMissingDepot(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := model.NewServiceID(model.StageBase, "PS-1", "2025-01-01")

	startBoundary := &model.Activity{
		ID:          model.BoundaryID(model.ManagedRoleStart, svc),
		Start:       start,
		ServiceID:   svc.String(),
		ServiceRole: model.ServiceRoleStart,
		Attributes:  &model.Attributes{},
	}
	endBoundary := &model.Activity{
		ID:          model.BoundaryID(model.ManagedRoleEnd, svc),
		Start:       end,
		End:         &end,
		ServiceID:   svc.String(),
		ServiceRole: model.ServiceRoleEnd,
		Attributes:  &model.Attributes{},
	}

	duty := &model.Duty{
		ServiceID:  svc,
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		Activities: []*model.Activity{startBoundary, endBoundary},
	}

	idx := store.BuildIndex(&store.Snapshot{})

	HomeDepotCompliance([]*model.Duty{duty}, idx)

	entry, ok := startBoundary.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Contains(t, entry.ConflictCodes, "HOME_DEPOT_NOT_FOUND")
}

func TestHomeDepotCompliancePurgesStaleCodesBeforeReannotating(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc := model.NewServiceID(model.StageBase, "PS-1", "2025-01-01")
	startBoundary := &model.Activity{
		ID:          model.BoundaryID(model.ManagedRoleStart, svc),
		Start:       start,
		ServiceID:   svc.String(),
		ServiceRole: model.ServiceRoleStart,
		Attributes: &model.Attributes{
			ServiceByOwner: map[string]model.ServiceConflictEntry{
				"PS-1": {ServiceID: svc.String(), ConflictCodes: []string{"HOME_DEPOT_NOT_FOUND", "MAX_WORK"}},
			},
		},
	}
	duty := &model.Duty{
		ServiceID:  svc,
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		Activities: []*model.Activity{startBoundary},
	}

	idx := store.BuildIndex(&store.Snapshot{
		HomeDepots: []store.HomeDepot{{ID: "D1", SiteIDs: map[string]struct{}{}}},
		Personnel:  []store.Personnel{{ResourceID: "PS-1", HomeDepotID: "D1"}},
	})

	HomeDepotCompliance([]*model.Duty{duty}, idx)

	entry := startBoundary.Attributes.ServiceByOwner["PS-1"]
	assert.NotContains(t, entry.ConflictCodes, "HOME_DEPOT_NOT_FOUND")
	assert.Contains(t, entry.ConflictCodes, "MAX_WORK")
}

func TestTimetableYearStartFindsFirstSundayOnOrAfterDec10(t *testing.T) {
	start := timetableYearStart(2025)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.True(t, !start.Before(time.Date(2025, time.December, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, start.Before(time.Date(2025, time.December, 17, 0, 0, 0, 0, time.UTC)))
}

func TestTimetableYearForBeforeCutoffBelongsToPriorYear(t *testing.T) {
	d := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2024, timetableYearFor(d))
}
