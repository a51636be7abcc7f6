/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics provides the Prometheus metrics of the editing core.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/yorkie-team/mdsync/internal/version"
)

const (
	namespace = "mdsync"
	kindLabel = "kind"
)

// Kinds of malformed input reported by the session façade.
const (
	KindContent   = "content"
	KindSteps     = "steps"
	KindSelection = "selection"
)

// Metrics manages the metric information that the editing core measures.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	version *prometheus.GaugeVec

	sessionsActive prometheus.Gauge

	announcementsTotal    prometheus.Counter
	announcedStepsTotal   prometheus.Counter
	remoteStepsTotal      prometheus.Counter
	confirmedStepsTotal   prometheus.Counter
	reconcileFailureTotal prometheus.Counter
	malformedInputTotal   *prometheus.CounterVec
	staleSelectionTotal   prometheus.Counter
}

// NewMetrics creates a new instance of Metrics with its own registry.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		version: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "version",
			Help:      "Which version is running. 1 for 'mdsync_version' label with current version.",
		}, []string{"mdsync_version"}),
		sessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "The number of sessions that are currently active.",
		}),
		announcementsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "announcer",
			Name:      "announcements_total",
			Help:      "The total count of document-changed events emitted to the host.",
		}),
		announcedStepsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "announcer",
			Name:      "steps_total",
			Help:      "The total count of steps carried by document-changed events.",
		}),
		remoteStepsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "remote_steps_total",
			Help:      "The total count of steps received from the host.",
		}),
		confirmedStepsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "confirmed_steps_total",
			Help:      "The total count of local steps acknowledged by the host.",
		}),
		reconcileFailureTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "reconciliation_failures_total",
			Help:      "The total count of remote batches rejected because of a version mismatch.",
		}),
		malformedInputTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "malformed_inputs_total",
			Help:      "The total count of host inputs that could not be decoded.",
		}, []string{kindLabel}),
		staleSelectionTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "stale_selections_total",
			Help:      "The total count of remote selections dropped for lying outside the document.",
		}),
	}

	metrics.version.With(prometheus.Labels{
		"mdsync_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// SessionOpened increases the number of active sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

// SessionClosed decreases the number of active sessions.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// AddAnnouncement records an emitted event carrying the given number of steps.
func (m *Metrics) AddAnnouncement(steps int) {
	if m == nil {
		return
	}
	m.announcementsTotal.Inc()
	m.announcedStepsTotal.Add(float64(steps))
}

// AddRemoteSteps records steps received from the host.
func (m *Metrics) AddRemoteSteps(steps int) {
	if m == nil {
		return
	}
	m.remoteStepsTotal.Add(float64(steps))
}

// AddConfirmedSteps records local steps acknowledged by the host.
func (m *Metrics) AddConfirmedSteps(steps int) {
	if m == nil {
		return
	}
	m.confirmedStepsTotal.Add(float64(steps))
}

// AddReconciliationFailure records a rejected remote batch.
func (m *Metrics) AddReconciliationFailure() {
	if m == nil {
		return
	}
	m.reconcileFailureTotal.Inc()
}

// AddMalformedInput records host input of the given kind that failed to decode.
func (m *Metrics) AddMalformedInput(kind string) {
	if m == nil {
		return
	}
	m.malformedInputTotal.With(prometheus.Labels{kindLabel: kind}).Inc()
}

// AddStaleSelection records a dropped out-of-range remote selection.
func (m *Metrics) AddStaleSelection() {
	if m == nil {
		return
	}
	m.staleSelectionTotal.Inc()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Gather returns the metric families of this metrics whose names start with
// the mdsync namespace.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var result []*dto.MetricFamily
	for _, family := range families {
		if len(family.GetName()) > len(namespace) && family.GetName()[:len(namespace)+1] == namespace+"_" {
			result = append(result, family)
		}
	}
	return result, nil
}
