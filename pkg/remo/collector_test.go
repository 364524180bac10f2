package remo

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCollector(t *testing.T) {
	devices, err := ParseDevices(loadDevices(t))
	require.NoError(t, err)

	bedroom := &DeviceRecord{
		ID:             "bedroom",
		Name:           "Bedroom",
		HumidityOffset: 2,
		NewestEvents: map[Channel]LatestEventValue{
			ChannelHumidity: {Val: 50, CreatedAt: "2024-02-13T13:40:18Z"},
		},
	}

	c := NewCollector(zaptest.NewLogger(t))
	c.now = func() time.Time { return time.Date(2024, 2, 13, 13, 40, 48, 0, time.UTC) }
	c.Update(append(devices, bedroom))

	expected := `
# HELP remo_device_online Whether the device is currently connected (1) or not (0).
# TYPE remo_device_online gauge
remo_device_online{device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 1
remo_device_online{device_id="bedroom",name="Bedroom"} 0
# HELP remo_humidity_percent Indoor relative humidity as a percentage including the device offset.
# TYPE remo_humidity_percent gauge
remo_humidity_percent{device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 45
remo_humidity_percent{device_id="bedroom",name="Bedroom"} 52
# HELP remo_illuminance Illuminance level as reported by the device.
# TYPE remo_illuminance gauge
remo_illuminance{device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 200
# HELP remo_reading_age_seconds Seconds since the newest event of a channel was observed.
# TYPE remo_reading_age_seconds gauge
remo_reading_age_seconds{channel="hu",device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 1562
remo_reading_age_seconds{channel="hu",device_id="bedroom",name="Bedroom"} 30
remo_reading_age_seconds{channel="il",device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 1318
remo_reading_age_seconds{channel="mo",device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 1294
remo_reading_age_seconds{channel="te",device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 60
# HELP remo_temperature_celsius Indoor temperature in degrees Celsius including the device offset.
# TYPE remo_temperature_celsius gauge
remo_temperature_celsius{device_id="1ab038b5-78b1-4b07-a5e5-a7100acc2544",name="Living room"} 18.7
`
	err = testutil.CollectAndCompare(c, strings.NewReader(expected))
	assert.NoError(t, err)
}

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))

	c.Update(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCollectorSkipsDuplicateDevices(t *testing.T) {
	first := &DeviceRecord{ID: "remo", Name: "Living room", Online: true}
	second := &DeviceRecord{ID: "remo", Name: "Kitchen"}

	c := NewCollector(zaptest.NewLogger(t))
	c.Update([]*DeviceRecord{first, second})

	expected := `
# HELP remo_device_online Whether the device is currently connected (1) or not (0).
# TYPE remo_device_online gauge
remo_device_online{device_id="remo",name="Living room"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}
