// Package telemetry collects the published readings and timer actions and
// serves them over HTTP
package telemetry

import (
	"maps"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink receives readings by key
type Sink interface {
	SetVariable(key, value string)
}

// Registry keeps the latest value of every variable. Numeric and boolean
// values are also exported as gauges, anything else as an info series.
type Registry struct {
	mu        sync.Mutex
	variables map[string]string

	prom     *prometheus.Registry
	gauges   *prometheus.GaugeVec
	info     *prometheus.GaugeVec
	actions  *prometheus.CounterVec
	sessions prometheus.Counter
}

func NewRegistry() *Registry {
	r := &Registry{
		variables: make(map[string]string),
		prom:      prometheus.NewRegistry(),
		gauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rorsplit_variable",
				Help: "Latest numeric reading of a watched game value",
			},
			[]string{"key"},
		),
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rorsplit_variable_info",
				Help: "Latest non-numeric reading of a watched game value",
			},
			[]string{"key", "value"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rorsplit_actions_total",
				Help: "Timer actions sent",
			},
			[]string{"action"},
		),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rorsplit_sessions_total",
			Help: "Attach sessions started",
		}),
	}
	r.prom.MustRegister(r.gauges, r.info, r.actions, r.sessions)
	return r
}

// SetVariable records value. Unchanged values are ignored.
func (r *Registry) SetVariable(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, seen := r.variables[key]
	if seen && old == value {
		return
	}
	r.variables[key] = value

	if seen {
		r.info.DeleteLabelValues(key, old)
	}
	if f, ok := numeric(value); ok {
		r.gauges.WithLabelValues(key).Set(f)
		return
	}
	r.gauges.DeleteLabelValues(key)
	r.info.WithLabelValues(key, value).Set(1)
}

// Variable returns the latest value of key
func (r *Registry) Variable(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variables[key]
	return v, ok
}

// Variables returns a copy of all values
func (r *Registry) Variables() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.variables)
}

// CountAction increments the counter of action
func (r *Registry) CountAction(action string) {
	r.actions.WithLabelValues(action).Inc()
}

// CountSession increments the session counter
func (r *Registry) CountSession() {
	r.sessions.Inc()
}

// Gatherer exposes the metrics for scraping
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

func numeric(value string) (float64, bool) {
	if b, err := strconv.ParseBool(value); err == nil {
		if b {
			return 1, true
		}
		return 0, true
	}
	f, err := strconv.ParseFloat(value, 64)
	return f, err == nil
}
