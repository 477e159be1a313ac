// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_Validate(t *testing.T) {
	tests := []struct {
		name     string
		exporter Exporter
		wantErr  bool
	}{
		{name: "http exporter", exporter: HTTP},
		{name: "grpc exporter", exporter: GRPC},
		{name: "stdout exporter", exporter: STDOUT},
		{name: "noop exporter", exporter: NOOP},
		{name: "empty exporter", exporter: ""},
		{name: "unsupported exporter", exporter: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exporter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExporter_IsExporting(t *testing.T) {
	assert.True(t, HTTP.IsExporting())
	assert.True(t, GRPC.IsExporting())
	assert.False(t, STDOUT.IsExporting())
	assert.False(t, NOOP.IsExporting())
	assert.False(t, Exporter("").IsExporting())
}

func TestExporter_Create(t *testing.T) {
	tests := []struct {
		name     string
		exporter Exporter
		wantErr  bool
	}{
		{name: "stdout exporter", exporter: STDOUT},
		{name: "noop exporter", exporter: NOOP},
		{name: "empty exporter falls back to noop", exporter: ""},
		{name: "unsupported exporter", exporter: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := tt.exporter.Create(t.Context(), &Config{Exporter: tt.exporter})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, exp)
			assert.NoError(t, exp.ExportSpans(t.Context(), nil))
			assert.NoError(t, exp.Shutdown(t.Context()))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "disabled", config: Config{}},
		{name: "stdout without url", config: Config{Exporter: STDOUT}},
		{name: "http with url", config: Config{Exporter: HTTP, Url: "collector.example.com:4318"}},
		{name: "http without url", config: Config{Exporter: HTTP}, wantErr: true},
		{name: "grpc without url", config: Config{Exporter: GRPC}, wantErr: true},
		{name: "unsupported exporter", config: Config{Exporter: "carrier-pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(t.Context())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManager_InitTracingAndShutdown(t *testing.T) {
	m := New(Config{Enabled: true, Exporter: NOOP})

	require.NotNil(t, m.GetRegistry())
	require.NoError(t, m.InitTracing(t.Context()))
	require.NoError(t, m.Shutdown(t.Context()))
}

func TestManager_ShutdownWithoutInit(t *testing.T) {
	m := New(Config{})
	assert.NoError(t, m.Shutdown(t.Context()))
}
