// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package autoframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
)

func baseResolvedConfig() *resolve.ResolvedConfig {
	return &resolve.ResolvedConfig{
		MaxWorkMinutes:           480,
		MaxContinuousWorkMinutes: 360,
		MinBreakMinutes:          30,
		MinShortBreakMinutes:     15,
		MaxDutySpanMinutes:       720,
		MaxConflictLevel:         2,
		StartTypeIDByOwnerGroup: map[model.OwnerGroup]string{
			model.OwnerGroupPersonnel: "T_PSTART",
			model.OwnerGroupVehicle:   "T_VON",
		},
		EndTypeIDByOwnerGroup: map[model.OwnerGroup]string{
			model.OwnerGroupPersonnel: "T_PEND",
			model.OwnerGroupVehicle:   "T_VOFF",
		},
	}
}

func simpleDuty() *model.Duty {
	svc := model.NewServiceID(model.StageBase, "PS-1", "2025-01-01")
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	payload := &model.Activity{
		ID:    "a1",
		Start: start,
		End:   &end,
		Participants: []model.Participant{
			{ResourceID: "PS-1", Kind: model.KindPersonnel},
		},
	}
	return &model.Duty{
		ServiceID:  svc,
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		DayKey:     "2025-01-01",
		Activities: []*model.Activity{payload},
	}
}

func TestFrameSynthesizesBoundariesSpanningPayload(t *testing.T) {
	duty := simpleDuty()
	rc := baseResolvedConfig()
	idx := store.BuildIndex(&store.Snapshot{WalkTimes: store.WalkTimeIndex{}})

	result := Frame(duty, rc, idx)

	var start, end *model.Activity
	for _, u := range result.Upserts {
		switch u.ServiceRole {
		case model.ServiceRoleStart:
			start = u
		case model.ServiceRoleEnd:
			end = u
		}
	}
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, "svcstart:svc:base:PS-1:2025-01-01", start.ID)
	assert.Equal(t, "svcend:svc:base:PS-1:2025-01-01", end.ID)
	assert.True(t, start.Start.Equal(duty.Activities[0].Start))
	assert.True(t, end.EndOrDefault().Equal(duty.Activities[0].EndOrDefault()))
}

func TestFrameEmitsHomeDepotNotFoundWithoutMasterData(t *testing.T) {
	duty := simpleDuty()
	rc := baseResolvedConfig()
	idx := store.BuildIndex(&store.Snapshot{WalkTimes: store.WalkTimeIndex{}})

	result := Frame(duty, rc, idx)

	var payloadAct *model.Activity
	for _, u := range result.Upserts {
		if u.ID == "a1" {
			payloadAct = u
		}
	}
	require.NotNil(t, payloadAct)
	require.NotNil(t, payloadAct.Attributes)
	entry, ok := payloadAct.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Contains(t, entry.ConflictCodes, "HOME_DEPOT_NOT_FOUND")
}

func TestFrameDeletesSupersededManagedIDs(t *testing.T) {
	duty := simpleDuty()
	stale := &model.Activity{
		ID:          "svcbreak:svc:base:PS-1:2025-01-01:7",
		Start:       time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC),
		ServiceID:   duty.ServiceID.String(),
		ServiceRole: model.ServiceRoleSegment,
	}
	duty.Activities = append(duty.Activities, stale)

	rc := baseResolvedConfig()
	idx := store.BuildIndex(&store.Snapshot{WalkTimes: store.WalkTimeIndex{}})

	result := Frame(duty, rc, idx)

	assert.Contains(t, result.DeletedIDs, stale.ID)
}
