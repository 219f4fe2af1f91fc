// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kron12345/coreplanx/internal/resolve"
	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
)

func dutyWithBoundaries(day string, startHour, endHour int) *model.Duty {
	svc := model.NewServiceID(model.StageBase, "PS-1", day)
	start := time.Date(2025, 1, 1, startHour, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset(day))
	end := time.Date(2025, 1, 1, endHour, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset(day))

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
	payload := &model.Activity{
		ID:    "payload:" + day,
		Start: start,
		End:   &end,
		Participants: []model.Participant{
			{ResourceID: "PS-1", Kind: model.KindPersonnel},
		},
	}

	return &model.Duty{
		ServiceID:  svc,
		Owner:      model.Owner{ResourceID: "PS-1", Kind: model.KindPersonnel},
		Activities: []*model.Activity{startBoundary, endBoundary, payload},
	}
}

func dayOffset(day string) int {
	switch day {
	case "2025-01-01":
		return 0
	case "2025-01-02":
		return 1
	case "2025-01-03":
		return 2
	default:
		return 0
	}
}

func TestAZGBreakRequiredFlagsLongDutyWithNoBreak(t *testing.T) {
	duty := dutyWithBoundaries("2025-01-01", 6, 18)
	rc := &resolve.ResolvedConfig{
		AZG: resolve.AZGRules{
			BreakRequired: store.BreakRequiredParams{
				RuleBase:             store.RuleBase{Enabled: true},
				MaxContinuousMinutes: 360,
			},
		},
	}

	AZGCompliance([]*model.Duty{duty}, rc)

	sb := duty.Boundary(model.ManagedRoleStart)
	require.NotNil(t, sb.Attributes)
	entry, ok := sb.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Contains(t, entry.ConflictCodes, "AZG_BREAK_REQUIRED")
}

func TestAZGRuleDisabledEmitsNothing(t *testing.T) {
	duty := dutyWithBoundaries("2025-01-01", 6, 18)
	rc := &resolve.ResolvedConfig{
		AZG: resolve.AZGRules{
			BreakRequired: store.BreakRequiredParams{
				RuleBase:             store.RuleBase{Enabled: false},
				MaxContinuousMinutes: 360,
			},
		},
	}

	AZGCompliance([]*model.Duty{duty}, rc)

	sb := duty.Boundary(model.ManagedRoleStart)
	if sb.Attributes == nil {
		return
	}
	entry := sb.Attributes.ServiceByOwner["PS-1"]
	assert.NotContains(t, entry.ConflictCodes, "AZG_BREAK_REQUIRED")
}

func TestAZGRestMinFlagsShortTurnaround(t *testing.T) {
	dutyA := dutyWithBoundaries("2025-01-01", 6, 22)
	dutyB := dutyWithBoundaries("2025-01-02", 0, 8)
	rc := &resolve.ResolvedConfig{
		AZG: resolve.AZGRules{
			RestMin: store.RestMinParams{
				RuleBase:       store.RuleBase{Enabled: true},
				MinRestMinutes: 660,
			},
		},
	}

	AZGCompliance([]*model.Duty{dutyA, dutyB}, rc)

	sb := dutyB.Boundary(model.ManagedRoleStart)
	require.NotNil(t, sb.Attributes)
	entry, ok := sb.Attributes.ServiceByOwner["PS-1"]
	require.True(t, ok)
	assert.Contains(t, entry.ConflictCodes, "AZG_REST_MIN")
}

func TestAZGResourceKindFilterExcludesVehicles(t *testing.T) {
	svc := model.NewServiceID(model.StageBase, "V-1", "2025-01-01")
	start := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
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
		Owner:      model.Owner{ResourceID: "V-1", Kind: model.KindVehicle},
		Activities: []*model.Activity{startBoundary, endBoundary},
	}

	rc := &resolve.ResolvedConfig{
		AZG: resolve.AZGRules{
			BreakRequired: store.BreakRequiredParams{
				RuleBase: store.RuleBase{
					Enabled:       true,
					ResourceKinds: []model.OwnerGroup{model.OwnerGroupPersonnel},
				},
				MaxContinuousMinutes: 60,
			},
		},
	}

	AZGCompliance([]*model.Duty{duty}, rc)

	if startBoundary.Attributes == nil {
		return
	}
	entry := startBoundary.Attributes.ServiceByOwner["V-1"]
	assert.NotContains(t, entry.ConflictCodes, "AZG_BREAK_REQUIRED")
}
