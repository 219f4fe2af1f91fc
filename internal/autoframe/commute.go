// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package autoframe

import (
	"time"

	"github.com/kron12345/coreplanx/internal/store"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/conflict"
)

// synthesizeCommutes emits the start/end commute legs spec.md §4.4.4
// describes: one activity per side where both an operational point and a
// walk time are available, widening the duty window by exactly that walk
// time.
func synthesizeCommutes(duty *model.Duty, idx *store.Index, depot *store.HomeDepot, windowStart, windowEnd *time.Time, startBoundary, endBoundary *model.Activity) ([]*model.Activity, []conflict.Code) {
	if depot == nil {
		return nil, nil
	}
	payload := duty.Payload()
	if len(payload) == 0 {
		return nil, nil
	}

	startOp := payload[0].StartLocation()
	var endOp string
	var latestEnd time.Time
	for i, act := range payload {
		actEnd := act.EndOrDefault()
		if i == 0 || actEnd.After(latestEnd) {
			latestEnd = actEnd
			endOp = act.EndLocation()
		}
	}

	var commutes []*model.Activity

	if startOp != "" && startBoundary.To != "" {
		if minutes, ok := idx.WalkTimes.Lookup(store.PersonnelSiteNode(startBoundary.To), store.OPNode(startOp)); ok && minutes > 0 {
			end := *windowStart
			start := end.Add(-time.Duration(minutes) * time.Minute)
			c := &model.Activity{
				ID:          model.CommuteID(duty.ServiceID, "start"),
				Start:       start,
				End:         &end,
				From:        startBoundary.To,
				To:          startOp,
				ServiceID:   duty.ServiceID.String(),
				ServiceRole: model.ServiceRoleSegment,
				Attributes:  &model.Attributes{},
			}
			commutes = append(commutes, c)
			*windowStart = start
		}
	}

	if endOp != "" && endBoundary.From != "" {
		if minutes, ok := idx.WalkTimes.Lookup(store.OPNode(endOp), store.PersonnelSiteNode(endBoundary.From)); ok && minutes > 0 {
			start := *windowEnd
			end := start.Add(time.Duration(minutes) * time.Minute)
			c := &model.Activity{
				ID:          model.CommuteID(duty.ServiceID, "end"),
				Start:       start,
				End:         &end,
				From:        endOp,
				To:          endBoundary.From,
				ServiceID:   duty.ServiceID.String(),
				ServiceRole: model.ServiceRoleSegment,
				Attributes:  &model.Attributes{},
			}
			commutes = append(commutes, c)
			*windowEnd = end
		}
	}

	return commutes, nil
}
