/*
Copyright (c) Facebook, Inc. and its affiliates.

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

/*
Package stats implements statistics collection for the timekeeping
library: NTP exchanges, per-host failures, syncs and drift operations.
The Stats interface is the seam for custom reporters; Counters is the
default in-memory implementation.
*/
package stats

import (
	"sync/atomic"
)

// Stats is a metric collection interface
type Stats interface {
	// IncRequests atomically adds 1 to the counter of NTP requests sent
	IncRequests()
	// IncInvalidFormat atomically adds 1 to the counter of malformed replies
	IncInvalidFormat()
	// IncFailures atomically adds 1 to the counter of per-host network failures
	IncFailures()
	// IncSync atomically adds 1 to the counter of RTC synchronizations
	IncSync()
	// IncDriftCalculate atomically adds 1 to the counter of drift measurements
	IncDriftCalculate()
	// IncDriftCompensate atomically adds 1 to the counter of drift compensations
	IncDriftCompensate()
}

// Counters is an atomic in-memory Stats implementation
type Counters struct {
	// keep these aligned to 64-bit for sync/atomic
	requests        int64
	invalidFormat   int64
	failures        int64
	sync            int64
	driftCalculate  int64
	driftCompensate int64
}

// IncRequests atomically adds 1 to the counter
func (c *Counters) IncRequests() {
	atomic.AddInt64(&c.requests, 1)
}

// IncInvalidFormat atomically adds 1 to the counter
func (c *Counters) IncInvalidFormat() {
	atomic.AddInt64(&c.invalidFormat, 1)
}

// IncFailures atomically adds 1 to the counter
func (c *Counters) IncFailures() {
	atomic.AddInt64(&c.failures, 1)
}

// IncSync atomically adds 1 to the counter
func (c *Counters) IncSync() {
	atomic.AddInt64(&c.sync, 1)
}

// IncDriftCalculate atomically adds 1 to the counter
func (c *Counters) IncDriftCalculate() {
	atomic.AddInt64(&c.driftCalculate, 1)
}

// IncDriftCompensate atomically adds 1 to the counter
func (c *Counters) IncDriftCompensate() {
	atomic.AddInt64(&c.driftCompensate, 1)
}

// Snapshot exports all counters as a map
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"ntp.requests":      atomic.LoadInt64(&c.requests),
		"ntp.invalidformat": atomic.LoadInt64(&c.invalidFormat),
		"ntp.failures":      atomic.LoadInt64(&c.failures),
		"sync":              atomic.LoadInt64(&c.sync),
		"drift.calculate":   atomic.LoadInt64(&c.driftCalculate),
		"drift.compensate":  atomic.LoadInt64(&c.driftCompensate),
	}
}
