package remo

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	temperatureDesc = prometheus.NewDesc("remo_temperature_celsius",
		"Indoor temperature in degrees Celsius including the device offset.",
		[]string{"device_id", "name"}, nil)
	humidityDesc = prometheus.NewDesc("remo_humidity_percent",
		"Indoor relative humidity as a percentage including the device offset.",
		[]string{"device_id", "name"}, nil)
	illuminanceDesc = prometheus.NewDesc("remo_illuminance",
		"Illuminance level as reported by the device.",
		[]string{"device_id", "name"}, nil)
	readingAgeDesc = prometheus.NewDesc("remo_reading_age_seconds",
		"Seconds since the newest event of a channel was observed.",
		[]string{"device_id", "name", "channel"}, nil)
	onlineDesc = prometheus.NewDesc("remo_device_online",
		"Whether the device is currently connected (1) or not (0).",
		[]string{"device_id", "name"}, nil)
)

// Collector exports the most recent device snapshot passed to Update.
type Collector struct {
	mu      sync.RWMutex
	devices []*DeviceRecord
	now     func() time.Time
	log     *zap.Logger
}

func NewCollector(l *zap.Logger) *Collector {
	if l == nil {
		l = zap.L()
	}
	return &Collector{now: time.Now, log: l}
}

// Update replaces the exported snapshot. Only the first device of a
// repeated id is kept, duplicate series would fail the whole scrape.
func (c *Collector) Update(devices []*DeviceRecord) {
	seen := make(map[string]struct{}, len(devices))
	unique := make([]*DeviceRecord, 0, len(devices))
	for _, d := range devices {
		if _, ok := seen[d.ID]; ok {
			c.log.Warn("skipping duplicate device", zap.String("deviceId", d.ID), zap.String("name", d.Name))
			continue
		}
		seen[d.ID] = struct{}{}
		unique = append(unique, d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices = unique
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- temperatureDesc
	ch <- humidityDesc
	ch <- illuminanceDesc
	ch <- readingAgeDesc
	ch <- onlineDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	for _, d := range c.devices {
		online := 0.0
		if d.Online {
			online = 1
		}
		ch <- prometheus.MustNewConstMetric(onlineDesc, prometheus.GaugeValue, online, d.ID, d.Name)

		// missing channels are not exported
		if v, err := d.Temperature(); err == nil {
			ch <- prometheus.MustNewConstMetric(temperatureDesc, prometheus.GaugeValue, v, d.ID, d.Name)
		}
		if v, err := d.Humidity(); err == nil {
			ch <- prometheus.MustNewConstMetric(humidityDesc, prometheus.GaugeValue, v, d.ID, d.Name)
		}
		if v, err := d.Luminance(); err == nil {
			ch <- prometheus.MustNewConstMetric(illuminanceDesc, prometheus.GaugeValue, v, d.ID, d.Name)
		}

		for _, r := range d.Readings() {
			ch <- prometheus.MustNewConstMetric(readingAgeDesc, prometheus.GaugeValue,
				now.Sub(r.Timestamp).Seconds(), d.ID, d.Name, string(r.Channel))
		}
	}
}
