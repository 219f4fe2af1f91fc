// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRetriesTransientErrors(t *testing.T) {
	policy := NewFixedDelay(3, time.Millisecond)
	attempts := 0
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &Transient{Err: errors.New("store unreachable")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	policy := NewExponentialBackoff()
	attempts := 0
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		return errors.New("malformed ruleset")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestNoRetryNeverRetries(t *testing.T) {
	policy := NewNoRetry()
	attempts := 0
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		return &Transient{Err: errors.New("boom")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsTransientUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("store fetch: %w", &Transient{Err: errors.New("inner")})
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsTransient(errors.New("plain")))
}
