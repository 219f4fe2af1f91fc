// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingRoleError(t *testing.T) {
	err := MissingRole("short-break")
	assert.Equal(t, CodeMissingRole, err.Code)
	assert.Contains(t, err.Error(), "short-break")
}

func TestIsMatchesByCode(t *testing.T) {
	a := MissingRole("commute")
	b := MissingRole("personnel-start")
	assert.True(t, errors.Is(a, b))

	c := InvalidParam("maxWorkMinutes", "must be positive")
	assert.False(t, errors.Is(a, c))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	err := StoreUnavailable("RuleStore", cause)
	assert.ErrorIs(t, err, cause)
}
