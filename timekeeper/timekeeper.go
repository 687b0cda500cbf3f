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

// Package timekeeper ties the RTC, the NTP client, the drift recorder and
// the calendar math into one handle. A Timekeeper owns all mutable state
// (timezone, DST rule, server list, drift baseline); nothing in this
// library lives in package-level variables. Timekeeper is not safe for
// concurrent use, callers serialize access.
package timekeeper

import (
	"fmt"
	"time"

	"github.com/facebook/rtctime/calendar"
	"github.com/facebook/rtctime/drift"
	"github.com/facebook/rtctime/dst"
	"github.com/facebook/rtctime/ntp/client"
	"github.com/facebook/rtctime/rtc"
	"github.com/facebook/rtctime/stats"

	log "github.com/sirupsen/logrus"
)

// Timekeeper is the top-level handle over one RTC device.
type Timekeeper struct {
	device      rtc.Device
	deviceEpoch calendar.Epoch
	epoch       calendar.Epoch

	servers   []string
	validator HostValidator
	client    *client.Client

	tzOffset int // seconds east of UTC
	dstRule  *dst.Rule

	recorder *drift.Recorder
	stats    stats.Stats
}

// New builds a Timekeeper from cfg. The config is copied; later setter
// calls do not touch it.
func New(cfg Config) (*Timekeeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st := cfg.Stats
	if st == nil {
		st = &stats.Counters{}
	}
	epoch := cfg.DeviceEpoch
	if cfg.Epoch != nil {
		epoch = *cfg.Epoch
	}
	validator := cfg.HostValidator
	if validator == nil {
		validator = defaultHostValidator
	}
	tzOffset, err := timezoneOffset(cfg.TimezoneHours, cfg.TimezoneMinutes)
	if err != nil {
		return nil, err
	}
	tk := &Timekeeper{
		device:      cfg.Device,
		deviceEpoch: cfg.DeviceEpoch,
		epoch:       epoch,
		validator:   validator,
		client: &client.Client{
			Timeout:   cfg.Timeout,
			Exchanger: cfg.Exchanger,
			Stats:     st,
		},
		tzOffset: tzOffset,
		dstRule:  cfg.DST,
		recorder: drift.New(cfg.Device.Precision()),
		stats:    st,
	}
	tk.SetServers(cfg.Servers)
	return tk, nil
}

// readUTC reads the RTC as an absolute UTC instant at the device epoch,
// plus the equivalent raw tick count.
func (tk *Timekeeper) readUTC() (calendar.Time, drift.Ticks, error) {
	d, err := tk.device.ReadTime()
	if err != nil {
		return calendar.Time{}, 0, fmt.Errorf("reading rtc: %w", err)
	}
	t := d.Time(tk.deviceEpoch)
	return t, tk.ticksOf(t), nil
}

// writeRTC stores a UTC instant on the device, derived calendar fields
// filled in.
func (tk *Timekeeper) writeRTC(t calendar.Time) error {
	if err := tk.device.SetTime(calendar.DateOf(t, tk.deviceEpoch)); err != nil {
		return fmt.Errorf("writing rtc: %w", err)
	}
	return nil
}

func (tk *Timekeeper) ticksOf(t calendar.Time) drift.Ticks {
	return drift.Ticks(tk.device.Precision().Units(t.Micros()))
}

// localBias returns the seconds to add to a UTC instant to express it in
// local time: the fixed timezone offset plus the DST bias, if a DST rule
// is set and the instant falls inside the DST period. The DST decision is
// made against local standard time, never against the DST-shifted result.
func (tk *Timekeeper) localBias(utc calendar.Time) int64 {
	standard := utc.AddMicros(int64(tk.tzOffset) * calendar.MicrosPerSecond)
	bias := tk.dstRule.Bias(calendar.DateOf(standard, tk.deviceEpoch))
	return int64(tk.tzOffset + bias)
}

// adjust re-expresses a device-epoch UTC instant as microseconds at the
// requested epoch, shifted to local time unless utc is set.
func (tk *Timekeeper) adjust(t calendar.Time, epoch calendar.Epoch, utc bool) int64 {
	us := t.Micros() + calendar.Delta(tk.deviceEpoch, epoch)*calendar.MicrosPerSecond
	if !utc {
		us += tk.localBias(t) * calendar.MicrosPerSecond
	}
	return us
}

// Time reads the RTC and returns the full calendar breakdown, local
// unless utc is set. The breakdown is epoch-independent.
func (tk *Timekeeper) Time(utc bool) (calendar.Date, error) {
	t, _, err := tk.readUTC()
	if err != nil {
		return calendar.Date{}, err
	}
	if !utc {
		t = t.AddMicros(tk.localBias(t) * calendar.MicrosPerSecond)
	}
	return calendar.DateOf(t, tk.deviceEpoch), nil
}

// TimeMicro returns the current time in microseconds since the default
// epoch, local unless utc is set.
func (tk *Timekeeper) TimeMicro(utc bool) (int64, error) {
	return tk.TimeMicroAt(tk.epoch, utc)
}

// TimeMicroAt is TimeMicro against an explicit epoch.
func (tk *Timekeeper) TimeMicroAt(epoch calendar.Epoch, utc bool) (int64, error) {
	if !epoch.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidEpoch, epoch)
	}
	t, _, err := tk.readUTC()
	if err != nil {
		return 0, err
	}
	return tk.adjust(t, epoch, utc), nil
}

// TimeMilli returns the current time in milliseconds since the default
// epoch, local unless utc is set.
func (tk *Timekeeper) TimeMilli(utc bool) (int64, error) {
	return tk.TimeMilliAt(tk.epoch, utc)
}

// TimeMilliAt is TimeMilli against an explicit epoch.
func (tk *Timekeeper) TimeMilliAt(epoch calendar.Epoch, utc bool) (int64, error) {
	us, err := tk.TimeMicroAt(epoch, utc)
	return us / 1000, err
}

// TimeSeconds returns the current time in whole seconds since the default
// epoch, local unless utc is set.
func (tk *Timekeeper) TimeSeconds(utc bool) (int64, error) {
	return tk.TimeSecondsAt(tk.epoch, utc)
}

// TimeSecondsAt is TimeSeconds against an explicit epoch.
func (tk *Timekeeper) TimeSecondsAt(epoch calendar.Epoch, utc bool) (int64, error) {
	us, err := tk.TimeMicroAt(epoch, utc)
	return us / calendar.MicrosPerSecond, err
}

// networkTime converts an NTP result to the device epoch and adds the
// local processing delay accumulated since the request was sent. Network
// flight time is not compensated.
func (tk *Timekeeper) networkTime(res *client.Result) calendar.Time {
	t := calendar.Convert(res.Time, calendar.Epoch1900, tk.deviceEpoch)
	return t.AddMicros(time.Since(res.SendMarker).Microseconds())
}

// Sync queries the configured servers, writes the network time to the
// RTC and re-baselines the drift recorder at the written instant. On any
// failure the RTC and the drift state are left untouched.
func (tk *Timekeeper) Sync() error {
	res, err := tk.client.Query(tk.servers)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	now := tk.networkTime(res)
	if err := tk.writeRTC(now); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	tk.recorder.Sync(now, tk.ticksOf(now))
	tk.stats.IncSync()
	log.Debugf("timekeeper: synced to %s, rtc set to %dus", res.Host, now.Micros())
	return nil
}

// DriftCalculate queries the configured servers and measures the RTC
// drift since the last sync or compensation baseline. The RTC itself is
// not modified. Returns the drift rate in ppm (positive means the RTC
// runs fast) and the accumulated drift in microseconds.
func (tk *Timekeeper) DriftCalculate() (ppm float64, us int64, err error) {
	res, err := tk.client.Query(tk.servers)
	if err != nil {
		return 0, 0, fmt.Errorf("drift calculate: %w", err)
	}
	_, ticks, err := tk.readUTC()
	if err != nil {
		return 0, 0, fmt.Errorf("drift calculate: %w", err)
	}
	ppm, us, err = tk.recorder.Calculate(tk.networkTime(res), ticks)
	if err != nil {
		return 0, 0, fmt.Errorf("drift calculate: %w", err)
	}
	tk.stats.IncDriftCalculate()
	return ppm, us, nil
}

// DriftCompensate shifts the RTC backwards by us microseconds of
// accumulated drift (a positive value means the RTC is ahead and is
// moved back) and re-baselines the drift recorder, all without touching
// the network. Typically fed with DriftMicros.
func (tk *Timekeeper) DriftCompensate(us int64) error {
	err := tk.recorder.Compensate(us, func(delta drift.Ticks) (calendar.Time, drift.Ticks, error) {
		t, _, err := tk.readUTC()
		if err != nil {
			return calendar.Time{}, 0, err
		}
		adjusted := t.AddMicros(tk.device.Precision().Micros(int64(delta)))
		if err := tk.writeRTC(adjusted); err != nil {
			return calendar.Time{}, 0, err
		}
		return adjusted, tk.ticksOf(adjusted), nil
	})
	if err != nil {
		return fmt.Errorf("drift compensate: %w", err)
	}
	tk.stats.IncDriftCompensate()
	return nil
}

// DriftMicros estimates the drift accumulated since the last baseline
// from the stored ppm alone, without network access. Returns 0 before
// the first sync or when no ppm is known.
func (tk *Timekeeper) DriftMicros() (int64, error) {
	t, _, err := tk.readUTC()
	if err != nil {
		return 0, err
	}
	return tk.recorder.Offset(t), nil
}

// SetDriftPPM overrides the measured drift rate, for loading a rate
// persisted across reboots.
func (tk *Timekeeper) SetDriftPPM(ppm float64) {
	tk.recorder.SetPPM(ppm)
}

// DriftPPM returns the current drift rate estimate in ppm.
func (tk *Timekeeper) DriftPPM() float64 {
	return tk.recorder.PPM()
}

// DriftSynced reports whether a sync baseline exists, i.e. whether
// DriftCalculate can produce a measurement.
func (tk *Timekeeper) DriftSynced() bool {
	return tk.recorder.Synced()
}

// DriftStats returns the running mean and standard deviation of the ppm
// measurements taken so far, and their count.
func (tk *Timekeeper) DriftStats() (mean, stddev float64, n int) {
	return tk.recorder.SampleStats()
}

// lastEvent renders a recorder timestamp at the requested epoch, local
// unless utc is set. Zero when the event never happened.
func (tk *Timekeeper) lastEvent(t calendar.Time, epoch calendar.Epoch, utc bool) (int64, error) {
	if !epoch.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidEpoch, epoch)
	}
	if t.IsZero() {
		return 0, nil
	}
	return tk.adjust(t, epoch, utc), nil
}

// LastSync returns the microsecond timestamp of the last successful sync
// at the default epoch, or 0 if never synced.
func (tk *Timekeeper) LastSync(utc bool) (int64, error) {
	return tk.lastEvent(tk.recorder.LastSync(), tk.epoch, utc)
}

// LastSyncAt is LastSync against an explicit epoch.
func (tk *Timekeeper) LastSyncAt(epoch calendar.Epoch, utc bool) (int64, error) {
	return tk.lastEvent(tk.recorder.LastSync(), epoch, utc)
}

// LastDriftCalculate returns the microsecond timestamp of the last drift
// measurement at the default epoch, or 0 if none was taken.
func (tk *Timekeeper) LastDriftCalculate(utc bool) (int64, error) {
	return tk.lastEvent(tk.recorder.LastCalculate(), tk.epoch, utc)
}

// LastDriftCalculateAt is LastDriftCalculate against an explicit epoch.
func (tk *Timekeeper) LastDriftCalculateAt(epoch calendar.Epoch, utc bool) (int64, error) {
	return tk.lastEvent(tk.recorder.LastCalculate(), epoch, utc)
}

// LastDriftCompensate returns the microsecond timestamp of the last
// compensation at the default epoch, or 0 if none was applied.
func (tk *Timekeeper) LastDriftCompensate(utc bool) (int64, error) {
	return tk.lastEvent(tk.recorder.LastCompensate(), tk.epoch, utc)
}

// LastDriftCompensateAt is LastDriftCompensate against an explicit epoch.
func (tk *Timekeeper) LastDriftCompensateAt(epoch calendar.Epoch, utc bool) (int64, error) {
	return tk.lastEvent(tk.recorder.LastCompensate(), epoch, utc)
}

// SetTimezone replaces the fixed UTC offset. The minutes take the sign
// of the hours. On error the previous timezone stays in effect.
func (tk *Timekeeper) SetTimezone(hours, minutes int) error {
	offset, err := timezoneOffset(hours, minutes)
	if err != nil {
		return err
	}
	tk.tzOffset = offset
	return nil
}

// Timezone returns the fixed UTC offset as an hour/minute pair, minutes
// always non-negative.
func (tk *Timekeeper) Timezone() (hours, minutes int) {
	hours = tk.tzOffset / 3600
	minutes = tk.tzOffset % 3600 / 60
	if minutes < 0 {
		minutes = -minutes
	}
	return hours, minutes
}

// SetDST replaces the DST rule. nil disables DST.
func (tk *Timekeeper) SetDST(rule *dst.Rule) {
	tk.dstRule = rule
}

// DST returns the active DST rule, nil when disabled.
func (tk *Timekeeper) DST() *dst.Rule {
	return tk.dstRule
}

// SetEpoch changes the default epoch of accessor results. The device
// epoch is fixed at construction and is not affected.
func (tk *Timekeeper) SetEpoch(epoch calendar.Epoch) error {
	if !epoch.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidEpoch, epoch)
	}
	tk.epoch = epoch
	return nil
}

// Epoch returns the default epoch of accessor results.
func (tk *Timekeeper) Epoch() calendar.Epoch {
	return tk.epoch
}

// DeviceEpoch returns the epoch the RTC hardware counts from.
func (tk *Timekeeper) DeviceEpoch() calendar.Epoch {
	return tk.deviceEpoch
}

// SetServers replaces the NTP server list, keeping the given failover
// order. Hosts rejected by the validator are dropped with a warning; an
// empty surviving list is legal and makes network operations fail with
// client.ErrNoHosts.
func (tk *Timekeeper) SetServers(hosts []string) {
	kept := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if !tk.validator(h) {
			log.Warningf("timekeeper: dropping invalid ntp host %q", h)
			continue
		}
		kept = append(kept, h)
	}
	tk.servers = kept
}

// Servers returns a copy of the active NTP server list.
func (tk *Timekeeper) Servers() []string {
	out := make([]string, len(tk.servers))
	copy(out, tk.servers)
	return out
}

// SetTimeout changes the per-host network timeout. Zero restores
// client.DefaultTimeout.
func (tk *Timekeeper) SetTimeout(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("timekeeper: negative timeout %s", d)
	}
	tk.client.Timeout = d
	return nil
}

// Timeout returns the effective per-host network timeout.
func (tk *Timekeeper) Timeout() time.Duration {
	if tk.client.Timeout == 0 {
		return client.DefaultTimeout
	}
	return tk.client.Timeout
}
