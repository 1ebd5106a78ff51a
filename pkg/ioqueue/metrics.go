/*
Copyright 2026 The iosched Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ioqueue

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

// metricsSubsystem prefixes every per-class metric name.
const metricsSubsystem = "io_queue"

// classMetrics publishes one priority class's counters for a single owner
// shard. The collectors read the class state's atomics directly, so they can
// be scraped from any goroutine without touching the owning shard.
//
// Renaming a priority class re-publishes the same state under the new class
// label and retires the old collectors.
type classMetrics struct {
	registerer prometheus.Registerer
	logger     logr.Logger

	// identity labels; class name varies across renames.
	owner      uint32
	mountpoint string
	className  string

	collectors []prometheus.Collector
}

func newClassMetrics(
	registerer prometheus.Registerer,
	logger logr.Logger,
	cs *classState,
	owner uint32,
	mountpoint string,
	className string,
) *classMetrics {
	m := &classMetrics{
		registerer: registerer,
		logger:     logger,
		owner:      owner,
		mountpoint: mountpoint,
		className:  className,
	}
	m.collectors = m.publish(cs, className)
	return m
}

// publish builds and registers the class's collectors under the given class
// name, returning only the ones this instance registered. Registration is
// idempotent: a collector already published by another queue instance racing
// on the same registerer is not an error, but it belongs to that instance and
// must never be retired from here. Unregister works by descriptor identity,
// not collector instance, so retiring a never-registered duplicate would
// destroy the peer's live collector.
func (m *classMetrics) publish(cs *classState, className string) []prometheus.Collector {
	labels := prometheus.Labels{
		"shard":      strconv.FormatUint(uint64(m.owner), 10),
		"mountpoint": m.mountpoint,
		"class":      className,
	}

	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Subsystem:   metricsSubsystem,
			Name:        "total_bytes",
			Help:        "Total bytes passed in the queue.",
			ConstLabels: labels,
		}, func() float64 { return float64(cs.bytes.Load()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Subsystem:   metricsSubsystem,
			Name:        "total_operations",
			Help:        "Total operations passed in the queue.",
			ConstLabels: labels,
		}, func() float64 { return float64(cs.ops.Load()) }),
		// Unlike the queue-wide queued counter, this lives in the priority
		// class: it tells you how busy a class is, not how busy the system is.
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem:   metricsSubsystem,
			Name:        "queue_length",
			Help:        "Number of requests in the queue.",
			ConstLabels: labels,
		}, func() float64 { return float64(cs.queued.Load()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem:   metricsSubsystem,
			Name:        "delay",
			Help:        "Queuing delay of the most recently dispatched request, in seconds.",
			ConstLabels: labels,
		}, func() float64 { return time.Duration(cs.queueDelay.Load()).Seconds() }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem:   metricsSubsystem,
			Name:        "shares",
			Help:        "Current amount of shares.",
			ConstLabels: labels,
		}, func() float64 { return float64(cs.handle.Shares()) }),
	}

	owned := make([]prometheus.Collector, 0, len(collectors))
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			are := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				m.logger.V(logutil.DEBUG).Info("Class metrics already published, skipping",
					"class", className, "shard", m.owner)
				continue
			}
			m.logger.Error(err, "Failed to register class metrics",
				"class", className, "shard", m.owner)
			continue
		}
		owned = append(owned, c)
	}
	return owned
}

// rename re-publishes the class's metrics under the new name and retires the
// collectors published under the old one. Idempotent from the caller's
// perspective: a name already published (for example by another queue that
// renamed first) is swallowed inside publish.
func (m *classMetrics) rename(cs *classState, newName string) {
	if newName == m.className {
		return
	}
	old := m.collectors
	m.collectors = m.publish(cs, newName)
	m.className = newName
	for _, c := range old {
		m.registerer.Unregister(c)
	}
}

// unregister retires every collector this class published. Called at queue
// teardown.
func (m *classMetrics) unregister() {
	for _, c := range m.collectors {
		m.registerer.Unregister(c)
	}
	m.collectors = nil
}
