// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kron12345/coreplanx/model"
)

func TestNormalizeClearsStaleServiceIDAndShrinksOwners(t *testing.T) {
	act := &model.Activity{
		ID:        "a1",
		Start:     time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		ServiceID: "svc:base:PS-1:2025-01-01",
		Participants: []model.Participant{
			{ResourceID: "PS-1", Kind: model.KindPersonnel},
		},
		Attributes: &model.Attributes{
			ServiceByOwner: map[string]model.ServiceConflictEntry{
				"PS-1": {ServiceID: "svc:base:PS-1:2025-01-01"},
				"PS-2": {ServiceID: "svc:base:PS-2:2025-01-01"},
			},
		},
	}

	Normalize([]*model.Activity{act})

	assert.Empty(t, act.ServiceID)
	assert.Contains(t, act.Attributes.ServiceByOwner, "PS-1")
	assert.NotContains(t, act.Attributes.ServiceByOwner, "PS-2")
}

func TestNormalizeDropsMappingForOutsideActivities(t *testing.T) {
	act := &model.Activity{
		ID:    "a1",
		Start: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Attributes: &model.Attributes{
			IsWithinService: model.WithinServiceOutside,
			ServiceByOwner: map[string]model.ServiceConflictEntry{
				"PS-1": {ServiceID: "svc:base:PS-1:2025-01-01"},
			},
		},
	}

	Normalize([]*model.Activity{act})

	assert.Nil(t, act.Attributes.ServiceByOwner)
}

func TestNormalizeSkipsManagedAndBoundaryActivities(t *testing.T) {
	managed := &model.Activity{
		ID:        "svcstart:svc:base:PS-1:2025-01-01",
		Start:     time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		ServiceID: "svc:base:PS-1:2025-01-01",
	}
	boundary := &model.Activity{
		ID:          "a2",
		Start:       time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		ServiceID:   "svc:base:PS-1:2025-01-01",
		ServiceRole: model.ServiceRoleStart,
	}

	Normalize([]*model.Activity{managed, boundary})

	assert.Equal(t, "svc:base:PS-1:2025-01-01", managed.ServiceID)
	assert.Equal(t, "svc:base:PS-1:2025-01-01", boundary.ServiceID)
}

func TestNormalizeIdempotent(t *testing.T) {
	act := &model.Activity{
		ID:        "a1",
		Start:     time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		ServiceID: "svc:base:PS-1:2025-01-01",
		Participants: []model.Participant{
			{ResourceID: "PS-1", Kind: model.KindPersonnel},
		},
		Attributes: &model.Attributes{
			ServiceByOwner: map[string]model.ServiceConflictEntry{
				"PS-1": {ServiceID: "svc:base:PS-1:2025-01-01"},
			},
		},
	}

	Normalize([]*model.Activity{act})
	first := act.Attributes.Clone()
	Normalize([]*model.Activity{act})

	assert.Equal(t, first, act.Attributes)
}
