// Package metrics provides observability hooks for build runs. The
// default NoopRecorder keeps call sites free of nil checks; the
// Prometheus implementation activates when the metrics listener is
// configured.
package metrics

import "time"

// Recorder defines the hooks the engine calls during a build.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: success|partial|failed
	SetCategoryDocuments(category string, n int)
	AddLinkOutcome(outcome string, n int) // outcome: rewritten|external|unresolved|skipped
	SetCollisions(n int)
}

// NoopRecorder is the Recorder used when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) SetCategoryDocuments(string, int)           {}
func (NoopRecorder) AddLinkOutcome(string, int)                 {}
func (NoopRecorder) SetCollisions(int)                          {}
