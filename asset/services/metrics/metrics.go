/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"time"

	"github.com/hyperledger/fabric-lib-go/common/metrics"
	prom "github.com/prometheus/client_golang/prometheus"
)

type Kind = string

const (
	Submit   Kind = "submit"
	Evaluate Kind = "evaluate"
	Enroll   Kind = "enroll"
	Register Kind = "register"
)

type SuccessType = string

var SuccessValues = map[bool]SuccessType{
	true:  "success",
	false: "failure",
}

const (
	Namespace      = "asset"
	OperationLabel = "operation"
	KindLabel      = "kind"
	SuccessLabel   = "success"
)

func NewMetrics(p metrics.Provider) *Metrics {
	_, supportsGetters := p.(*Provider)
	return &Metrics{
		supportsGetters: supportsGetters,

		RequestsSent: p.NewCounter(metrics.CounterOpts{
			Namespace:    Namespace,
			Name:         "requests_sent",
			Help:         "Total ledger and CA requests issued",
			LabelNames:   []string{KindLabel, OperationLabel},
			StatsdFormat: "%{#fqname}.%{kind}.%{operation}",
		}),
		RequestsReceived: p.NewCounter(metrics.CounterOpts{
			Namespace:    Namespace,
			Name:         "requests_completed",
			Help:         "Ledger and CA requests completed, by outcome",
			LabelNames:   []string{KindLabel, OperationLabel, SuccessLabel},
			StatsdFormat: "%{#fqname}.%{kind}.%{operation}.%{success}",
		}),
		RequestsSucceeded: p.NewCounter(metrics.CounterOpts{
			Namespace:    Namespace,
			Name:         "requests_succeeded",
			Help:         "Ledger and CA requests completed successfully",
			LabelNames:   []string{KindLabel, OperationLabel},
			StatsdFormat: "%{#fqname}.%{kind}.%{operation}",
		}),
		RequestDuration: p.NewHistogram(metrics.HistogramOpts{
			Namespace:    Namespace,
			Name:         "request_duration",
			Help:         "Duration of ledger and CA requests in seconds",
			Buckets:      prom.ExponentialBucketsRange(0.005, 60, 15),
			LabelNames:   []string{KindLabel, OperationLabel, SuccessLabel},
			StatsdFormat: "%{#fqname}.%{kind}.%{operation}.%{success}",
		}),
		SessionsOpen: p.NewGauge(metrics.GaugeOpts{
			Namespace:    Namespace,
			Name:         "sessions_open",
			Help:         "Gateway sessions currently established",
			StatsdFormat: "%{#fqname}",
		}),
	}
}

type Metrics struct {
	supportsGetters bool

	RequestsSent      metrics.Counter
	RequestsReceived  metrics.Counter
	RequestsSucceeded metrics.Counter
	RequestDuration   metrics.Histogram
	SessionsOpen      metrics.Gauge
}

// Track records the start of a request and returns the function that records its outcome.
func (m *Metrics) Track(kind Kind, operation string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	m.RequestsSent.With(KindLabel, kind, OperationLabel, operation).Add(1)
	start := time.Now()
	return func(err error) {
		successType := SuccessValues[err == nil]
		m.RequestsReceived.
			With(KindLabel, kind, OperationLabel, operation, SuccessLabel, successType).
			Add(1)
		if err == nil {
			m.RequestsSucceeded.With(KindLabel, kind, OperationLabel, operation).Add(1)
		}
		m.RequestDuration.
			With(KindLabel, kind, OperationLabel, operation, SuccessLabel, successType).
			Observe(time.Since(start).Seconds())
	}
}
