// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter is the selector of the trace exporter
type Exporter string

const (
	// HTTP exports the traces to an otlp collector via http
	HTTP Exporter = "http"
	// GRPC exports the traces to an otlp collector via grpc
	GRPC Exporter = "grpc"
	// STDOUT prints the traces to the console
	STDOUT Exporter = "stdout"
	// NOOP drops the traces
	NOOP Exporter = "noop"
)

// Validate validates the exporter
func (e Exporter) Validate() error {
	switch e {
	case HTTP, GRPC, STDOUT, NOOP, "":
		return nil
	default:
		return fmt.Errorf("unsupported exporter type: %q", e)
	}
}

// IsExporting returns true if the exporter sends traces to a collector
func (e Exporter) IsExporting() bool {
	return e == HTTP || e == GRPC
}

// Create creates the configured span exporter
func (e Exporter) Create(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	switch e {
	case HTTP:
		return newHTTPExporter(ctx, config)
	case GRPC:
		return newGRPCExporter(ctx, config)
	case STDOUT:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case NOOP, "":
		return noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %q", e)
	}
}

func newHTTPExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Url),
		otlptracehttp.WithHeaders(config.headers()),
	}
	if !config.TLS.Enabled {
		opts = append(opts, otlptracehttp.WithInsecure())
	} else if config.TLS.CertPath != "" {
		pool, err := certPool(config.TLS.CertPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracehttp.WithTLSClientConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}))
	}
	return otlptracehttp.New(ctx, opts...)
}

func newGRPCExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(config.Url),
		otlptracegrpc.WithHeaders(config.headers()),
	}
	if !config.TLS.Enabled {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else if config.TLS.CertPath != "" {
		creds, err := credentials.NewClientTLSFromFile(config.TLS.CertPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load tls certificate: %w", err)
		}
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}
	return otlptracegrpc.New(ctx, opts...)
}

// headers returns the headers sent to the collector
func (c *Config) headers() map[string]string {
	if c.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.Token}
}

func certPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tls certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to parse tls certificate %q", path)
	}
	return pool, nil
}

// noopExporter drops all spans
type noopExporter struct{}

func (noopExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error { return nil }

func (noopExporter) Shutdown(_ context.Context) error { return nil }
