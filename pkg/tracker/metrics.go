// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics defines the metric collectors of the tracker
type metrics struct {
	sent         *prometheus.CounterVec
	acknowledged prometheus.Counter
	failed       prometheus.Counter
	openSpans    *prometheus.GaugeVec
}

// newMetrics initializes the metric collectors of the tracker
func newMetrics() metrics {
	return metrics{
		sent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parrot_transmissions_sent_total",
				Help: "Total number of transmissions dispatched to a peer.",
			},
			[]string{"peer"},
		),
		acknowledged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "parrot_transmissions_acknowledged_total",
				Help: "Total number of acknowledged transmissions.",
			},
		),
		failed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "parrot_transmissions_failed_total",
				Help: "Total number of transmissions that failed, expired or were swept on session teardown.",
			},
		),
		openSpans: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parrot_open_spans",
				Help: "Number of currently open spans per registry role.",
			},
			[]string{"role"},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.sent,
		m.acknowledged,
		m.failed,
		m.openSpans,
	}
}
