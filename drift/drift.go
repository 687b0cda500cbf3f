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
Package drift measures and compensates the frequency error of a
free-running RTC. A drift measurement needs two checkpoints: a baseline
recorded right after the RTC was set from network time, and a later
comparison of how much the RTC advanced versus how much real time passed.
The deviation is expressed in ppm, positive when the RTC runs fast.

The RTC's own reading is deliberately the elapsed-time reference between
checkpoints. That removes the need for a separate monotonic hardware
timer, at the cost of a corrupted measurement if the RTC is stepped
mid-interval; a new Sync resets the baseline after any step.
*/
package drift

import (
	"errors"
	"time"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"

	"github.com/facebook/rtctime/calendar"
	"github.com/facebook/rtctime/rtc"
)

// Measurement guidance. The engine does not enforce these: a Calculate
// over a shorter interval is allowed, it just resolves fewer ppm per
// quantization step of the RTC's subsecond precision. Scale up for
// second-only hardware.
const (
	// MinCalculateInterval is the shortest interval practical tests
	// showed to produce usable numbers on microsecond hardware.
	MinCalculateInterval = 20 * time.Minute
	// RecommendedCalculateInterval gives stable measurements.
	RecommendedCalculateInterval = 2 * time.Hour
)

var (
	// ErrNotSynced means Calculate or Compensate was called before any
	// Sync recorded a baseline.
	ErrNotSynced = errors.New("drift: no sync baseline recorded")
	// ErrNoInterval means the measurement interval is zero or negative.
	ErrNoInterval = errors.New("drift: measurement interval is not positive")
)

// Ticks is a raw RTC sample: the device's subsecond units elapsed since
// the device epoch.
type Ticks int64

// Recorder owns the drift state. All mutations happen through Sync,
// Calculate, Compensate and SetPPM; the caller's environment must
// serialize access.
type Recorder struct {
	precision rtc.Precision
	synced    bool
	ppm       float64

	// baseline is the checkpoint drift accumulates from: the last sync
	// or the last compensation, whichever came later.
	baselineTime  calendar.Time
	baselineTicks Ticks

	lastSync       calendar.Time
	lastCalculate  calendar.Time
	lastCompensate calendar.Time

	samples     *welford.Stats
	sampleCount int
}

// New creates a Recorder for an RTC of the given subsecond precision.
func New(p rtc.Precision) *Recorder {
	return &Recorder{precision: p, samples: welford.New()}
}

// Sync records a fresh baseline right after the RTC was set from network
// time and clears any calculate/compensate bookkeeping. It is the only
// operation allowed to redefine the baseline from scratch.
func (r *Recorder) Sync(now calendar.Time, ticks Ticks) {
	r.synced = true
	r.baselineTime = now
	r.baselineTicks = ticks
	r.lastSync = now
	r.lastCalculate = calendar.Time{}
	r.lastCompensate = calendar.Time{}
}

// Calculate compares the RTC's elapsed time against real elapsed time
// since the baseline and returns the drift in ppm and in microseconds.
// Positive values mean the RTC is speeding, negative that it lags. now
// must be UTC in the same epoch the baseline was recorded in, never
// timezone- or DST-adjusted.
func (r *Recorder) Calculate(now calendar.Time, ticks Ticks) (ppm float64, us int64, err error) {
	if !r.synced {
		return 0, 0, ErrNotSynced
	}
	realUS := now.Sub(r.baselineTime)
	if realUS <= 0 {
		return 0, 0, ErrNoInterval
	}
	rtcUS := r.precision.Micros(int64(ticks - r.baselineTicks))

	us = rtcUS - realUS
	ppm = float64(us) / float64(realUS) * 1e6
	r.ppm = ppm
	r.lastCalculate = now
	r.samples.Add(ppm)
	r.sampleCount++

	log.Debugf("drift: %+.3f ppm (%+d us over %d s)", ppm, us, realUS/calendar.MicrosPerSecond)
	return ppm, us, nil
}

// Compensate cancels us microseconds of accumulated drift by applying the
// equivalent negative tick delta to the RTC through apply, which must
// adjust the hardware and report the post-adjustment reading. On success
// the recorder re-baselines at that reading, so repeated compensation
// never double-counts drift that was already corrected. The measured ppm
// is retained for future Offset queries.
func (r *Recorder) Compensate(us int64, apply func(deltaTicks Ticks) (calendar.Time, Ticks, error)) error {
	if !r.synced {
		return ErrNotSynced
	}
	now, ticks, err := apply(Ticks(-r.precision.Units(us)))
	if err != nil {
		return err
	}
	r.baselineTime = now
	r.baselineTicks = ticks
	r.lastCompensate = now
	log.Debugf("drift: compensated %+d us of accumulated drift", us)
	return nil
}

// Offset returns the drift in microseconds accumulated between the
// baseline and now, using the recorded ppm. now is the RTC's own UTC
// reading, so the computation needs neither network nor hardware access.
// Before the first Sync the answer is 0.
func (r *Recorder) Offset(now calendar.Time) int64 {
	return r.OffsetWithPPM(r.ppm, now)
}

// OffsetWithPPM is Offset with an explicit ppm, for callers that carry a
// factory-calibrated value instead of a measured one.
func (r *Recorder) OffsetWithPPM(ppm float64, now calendar.Time) int64 {
	if !r.synced {
		return 0
	}
	deltaRTC := now.Sub(r.baselineTime)
	deltaReal := int64(1e6 * float64(deltaRTC) / (1e6 + ppm))
	return deltaRTC - deltaReal
}

// SetPPM injects a known drift, e.g. calibration data from non-volatile
// storage, without a Calculate round.
func (r *Recorder) SetPPM(ppm float64) {
	r.ppm = ppm
}

// PPM returns the measured or injected drift.
func (r *Recorder) PPM() float64 {
	return r.ppm
}

// Synced reports whether a baseline exists.
func (r *Recorder) Synced() bool {
	return r.synced
}

// LastSync returns the time of the last baseline reset, zero if none.
func (r *Recorder) LastSync() calendar.Time {
	return r.lastSync
}

// LastCalculate returns the time of the last measurement, zero if none.
func (r *Recorder) LastCalculate() calendar.Time {
	return r.lastCalculate
}

// LastCompensate returns the time of the last compensation, zero if none.
func (r *Recorder) LastCompensate() calendar.Time {
	return r.lastCompensate
}

// SampleStats returns the running mean and standard deviation of all ppm
// measurements since the recorder was created, and how many there were.
func (r *Recorder) SampleStats() (mean, stddev float64, n int) {
	return r.samples.Mean(), r.samples.Stddev(), r.sampleCount
}
