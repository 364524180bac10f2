package main

import (
	"fmt"
	"io"
	"time"

	"github.com/nimdanitro/remo-scraper-go/pkg/remo"
)

type readingLine struct {
	label string
	value func() (float64, error)
	ts    func() (time.Time, error)
}

// report prints one line per derived reading of d. Channels the device never
// reported are printed as unavailable.
func report(w io.Writer, d *remo.DeviceRecord) {
	lines := []readingLine{
		{"temperature", d.Temperature, d.TemperatureTimestamp},
		{"humidity", d.Humidity, d.HumidityTimestamp},
		{"luminance", d.Luminance, d.LuminanceTimestamp},
	}

	for _, l := range lines {
		v, err := l.value()
		if err != nil {
			fmt.Fprintf(w, "%s: %s: unavailable\n", d.Name, l.label)
			continue
		}
		ts, err := l.ts()
		if err != nil {
			fmt.Fprintf(w, "%s: %s: unavailable\n", d.Name, l.label)
			continue
		}
		fmt.Fprintf(w, "%s: time: %s %s: %g\n", d.Name, ts.Format(time.RFC3339), l.label, v)
	}
}
