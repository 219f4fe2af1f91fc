// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityKnownCodes(t *testing.T) {
	assert.Equal(t, LevelError, CodeCapacityOverlap.Severity())
	assert.Equal(t, LevelWarn, CodeLocationSequence.Severity())
}

func TestSeverityUnknownCodeIsClean(t *testing.T) {
	assert.Equal(t, LevelClean, Code("SOME_FUTURE_RULE").Severity())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, LevelWarn, Clamp(LevelError, LevelWarn))
	assert.Equal(t, LevelClean, Clamp(LevelClean, LevelError))
}

func TestSortedUniqueDedupesAndSorts(t *testing.T) {
	got := SortedUnique(
		[]Code{CodeMaxWork, CodeCapacityOverlap},
		[]Code{CodeCapacityOverlap, CodeAZGBreakRequired},
	)
	assert.Equal(t, []Code{CodeAZGBreakRequired, CodeCapacityOverlap, CodeMaxWork}, got)
}

func TestMaxLevel(t *testing.T) {
	assert.Equal(t, LevelError, MaxLevel([]Code{CodeLocationSequence, CodeCapacityOverlap}))
	assert.Equal(t, LevelClean, MaxLevel(nil))
}

func TestMergeDetailsDedupesPerCode(t *testing.T) {
	got := MergeDetails(
		map[string][]string{"A": {"x", "y"}},
		map[string][]string{"A": {"y", "z"}},
	)
	assert.Equal(t, []string{"x", "y", "z"}, got["A"])
}
