package main

import (
	"bytes"
	"testing"

	"github.com/nimdanitro/remo-scraper-go/pkg/remo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	d, err := remo.ParseDeviceRecord([]byte(`{
		"id": "1ab038b5", "name": "Living room", "serial_number": "1W3", "firmware_version": "Remo/1.14.2",
		"bt_mac_address": "", "mac_address": "",
		"created_at": "2024-02-12T11:02:41Z", "updated_at": "2024-02-13T12:47:21Z",
		"temperature_offset": 1.5, "humidity_offset": 0, "users": null,
		"newest_events": {
			"te": {"val": 18.7, "created_at": "2024-02-13T13:39:48Z"},
			"hu": {"val": 45, "created_at": "2024-02-13T13:14:46Z"}
		},
		"online": true
	}`))
	require.NoError(t, err)

	var buf bytes.Buffer
	report(&buf, d)

	assert.Equal(t, "Living room: time: 2024-02-13T13:39:48Z temperature: 20.2\n"+
		"Living room: time: 2024-02-13T13:14:46Z humidity: 45\n"+
		"Living room: luminance: unavailable\n", buf.String())
}
