package remo

import (
	"sort"
	"time"
)

// Channel is the key of a sensor in a device's newest events.
type Channel string

const (
	ChannelTemperature Channel = "te"
	ChannelHumidity    Channel = "hu"
	ChannelIlluminance Channel = "il"
	ChannelMotion      Channel = "mo"
)

// Name returns a human readable name for well known channels and the raw
// key otherwise.
func (c Channel) Name() string {
	switch c {
	case ChannelTemperature:
		return "temperature"
	case ChannelHumidity:
		return "humidity"
	case ChannelIlluminance:
		return "luminance"
	case ChannelMotion:
		return "motion"
	}
	return string(c)
}

// Reading is a single derived value of a device channel.
type Reading struct {
	Channel Channel
	// Raw is the value as reported by the device.
	Raw float64
	// Value is Raw with the device calibration offset applied.
	Value     float64
	Timestamp time.Time
}

// Reading returns the newest reading of ch. Temperature and humidity get the
// device calibration offset added, every other channel is returned as is.
func (d *DeviceRecord) Reading(ch Channel) (Reading, error) {
	ev, err := d.event(ch)
	if err != nil {
		return Reading{}, err
	}
	ts, err := ev.Timestamp()
	if err != nil {
		return Reading{}, err
	}
	return Reading{Channel: ch, Raw: ev.Val, Value: ev.Val + d.offset(ch), Timestamp: ts}, nil
}

// Readings returns every channel the device reported, ordered by key.
func (d *DeviceRecord) Readings() []Reading {
	keys := make([]string, 0, len(d.NewestEvents))
	for k := range d.NewestEvents {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	r := make([]Reading, 0, len(keys))
	for _, k := range keys {
		reading, err := d.Reading(Channel(k))
		if err != nil {
			continue
		}
		r = append(r, reading)
	}
	return r
}

// Temperature returns the temperature in °C including the temperature offset.
func (d *DeviceRecord) Temperature() (float64, error) {
	return d.value(ChannelTemperature)
}

// Humidity returns the relative humidity in % including the humidity offset.
func (d *DeviceRecord) Humidity() (float64, error) {
	return d.value(ChannelHumidity)
}

// Luminance returns the illuminance level. The device has no calibration
// for this channel so no offset is applied.
func (d *DeviceRecord) Luminance() (float64, error) {
	return d.value(ChannelIlluminance)
}

// TemperatureTimestamp returns when the temperature was observed, in UTC.
func (d *DeviceRecord) TemperatureTimestamp() (time.Time, error) {
	return d.timestamp(ChannelTemperature)
}

// HumidityTimestamp returns when the humidity was observed, in UTC.
func (d *DeviceRecord) HumidityTimestamp() (time.Time, error) {
	return d.timestamp(ChannelHumidity)
}

// LuminanceTimestamp returns when the illuminance was observed, in UTC.
func (d *DeviceRecord) LuminanceTimestamp() (time.Time, error) {
	return d.timestamp(ChannelIlluminance)
}

func (d *DeviceRecord) event(ch Channel) (LatestEventValue, error) {
	ev, ok := d.NewestEvents[ch]
	if !ok {
		return LatestEventValue{}, &MissingReadingError{Channel: ch}
	}
	return ev, nil
}

func (d *DeviceRecord) offset(ch Channel) float64 {
	switch ch {
	case ChannelTemperature:
		return d.TemperatureOffset
	case ChannelHumidity:
		return d.HumidityOffset
	}
	return 0
}

func (d *DeviceRecord) value(ch Channel) (float64, error) {
	ev, err := d.event(ch)
	if err != nil {
		return 0, err
	}
	return ev.Val + d.offset(ch), nil
}

func (d *DeviceRecord) timestamp(ch Channel) (time.Time, error) {
	ev, err := d.event(ch)
	if err != nil {
		return time.Time{}, err
	}
	return ev.Timestamp()
}
