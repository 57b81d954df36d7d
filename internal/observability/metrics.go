package observability

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
)

type MetricPoint struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

type Snapshot struct {
	Counters []MetricPoint `json:"counters"`
}

type metricEntry struct {
	name   string
	labels map[string]string
	value  float64
}

// Registry is a process-local counter registry. Constructor-injected, never a
// package global, so tests can assert on their own instance.
type Registry struct {
	mu       sync.Mutex
	counters map[string]metricEntry
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]metricEntry)}
}

func (r *Registry) IncCounter(name string, labels map[string]string, delta float64) {
	if delta == 0 {
		return
	}
	k, lcopy := metricKey(name, labels)
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.counters[k]
	if e.name == "" {
		e = metricEntry{name: name, labels: lcopy}
	}
	e.value += delta
	r.counters[k] = e
}

// CounterValue returns the current value of a counter, 0 if never incremented.
func (r *Registry) CounterValue(name string, labels map[string]string) float64 {
	k, _ := metricKey(name, labels)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[k].value
}

// Snapshot returns all counters sorted by key for stable output.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.counters))
	for k := range r.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	snap := Snapshot{Counters: make([]MetricPoint, 0, len(keys))}
	for _, k := range keys {
		e := r.counters[k]
		snap.Counters = append(snap.Counters, MetricPoint{Name: e.name, Labels: e.labels, Value: e.value})
	}
	return snap
}

// Handler serves the snapshot as JSON.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Snapshot())
	}
}

func metricKey(name string, labels map[string]string) (string, map[string]string) {
	if len(labels) == 0 {
		return name, nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(name)
	lcopy := make(map[string]string, len(labels))
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
		lcopy[k] = labels[k]
	}
	return b.String(), lcopy
}
