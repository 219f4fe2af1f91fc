// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	config := NewDefault()

	require.NotNil(t, config)
	assert.Equal(t, false, config.Debug)
	assert.Equal(t, ":8089", config.ListenAddr)
	assert.Greater(t, config.StoreFetchTimeout, time.Duration(0))
	assert.Positive(t, config.MaxStoreRetries)
}

func TestConfigLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name: "listen addr from environment",
			envVars: map[string]string{
				"DUTYAUTOPILOT_LISTEN_ADDR": ":9090",
			},
			expected: func(config *Config) {
				assert.Equal(t, ":9090", config.ListenAddr)
			},
		},
		{
			name: "store timeout from environment",
			envVars: map[string]string{
				"DUTYAUTOPILOT_STORE_TIMEOUT": "60s",
			},
			expected: func(config *Config) {
				assert.Equal(t, 60*time.Second, config.StoreFetchTimeout)
			},
		},
		{
			name: "max retries from environment",
			envVars: map[string]string{
				"DUTYAUTOPILOT_MAX_STORE_RETRIES": "5",
			},
			expected: func(config *Config) {
				assert.Equal(t, 5, config.MaxStoreRetries)
			},
		},
		{
			name: "debug from environment",
			envVars: map[string]string{
				"DUTYAUTOPILOT_DEBUG": "true",
			},
			expected: func(config *Config) {
				assert.Equal(t, true, config.Debug)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config := NewDefault()
			config.Load()

			require.NotNil(t, config)
			tt.expected(config)
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
		expectedErr error
	}{
		{
			name: "valid config",
			config: &Config{
				ListenAddr:        ":8089",
				StoreFetchTimeout: 30 * time.Second,
				MaxStoreRetries:   3,
			},
			expectError: false,
		},
		{
			name: "missing listen addr",
			config: &Config{
				StoreFetchTimeout: 30 * time.Second,
				MaxStoreRetries:   3,
			},
			expectError: true,
			expectedErr: ErrMissingListenAddr,
		},
		{
			name: "invalid timeout",
			config: &Config{
				ListenAddr:        ":8089",
				StoreFetchTimeout: -1 * time.Second,
				MaxStoreRetries:   3,
			},
			expectError: true,
			expectedErr: ErrInvalidTimeout,
		},
		{
			name: "invalid max retries",
			config: &Config{
				ListenAddr:        ":8089",
				StoreFetchTimeout: 30 * time.Second,
				MaxStoreRetries:   -1,
			},
			expectError: true,
			expectedErr: ErrInvalidMaxRetries,
		},
		{
			name: "zero max retries is valid",
			config: &Config{
				ListenAddr:        ":8089",
				StoreFetchTimeout: 30 * time.Second,
				MaxStoreRetries:   0,
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
