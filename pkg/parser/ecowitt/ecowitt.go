package ecowitt

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/griddeck/griddeck/pkg/parser"
)

// Parser implements the Ecowitt weather station push format. Ecowitt
// firmware submits imperial units; everything is normalized to metric.
type Parser struct{}

// GetEndpoint returns the endpoint path for Ecowitt stations
func (p *Parser) GetEndpoint() string {
	return "/ingest/ecowitt"
}

// GetDeviceKind returns the device kind identifier
func (p *Parser) GetDeviceKind() string {
	return "ecowitt"
}

// Parse converts Ecowitt form values to a normalized push batch
func (p *Parser) Parse(params url.Values) (*parser.PushBatch, error) {
	passKey := params.Get("PASSKEY")
	if passKey == "" {
		return nil, fmt.Errorf("missing PASSKEY")
	}

	batch := &parser.PushBatch{
		DeviceName:  passKey,
		DeviceModel: params.Get("model"),
		DeviceKind:  p.GetDeviceKind(),
		DateUTC:     time.Now().UTC(),
		Fields:      make(map[string]parser.PushField),
	}
	if batch.DeviceModel == "" {
		batch.DeviceModel = params.Get("stationtype")
	}

	// Ecowitt sends "2006-01-02 15:04:05" or with the space url-encoded as +
	if dateStr := params.Get("dateutc"); dateStr != "" {
		formats := []string{
			"2006-01-02 15:04:05",
			"2006-01-02+15:04:05",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, dateStr); err == nil {
				batch.DateUTC = t.UTC()
				break
			}
		}
	}

	parseFloat := func(key string) (float64, bool) {
		if val := params.Get(key); val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f, true
			}
		}
		return 0, false
	}

	set := func(name string, value float64, unit string) {
		batch.Fields[name] = parser.PushField{Value: value, Unit: unit}
	}

	// Temperatures arrive in Fahrenheit
	if f, ok := parseFloat("tempinf"); ok {
		set("temperature_indoor", (f-32)*5/9, "°C")
	}
	if f, ok := parseFloat("tempf"); ok {
		set("temperature", (f-32)*5/9, "°C")
	}

	if f, ok := parseFloat("humidityin"); ok {
		set("humidity_indoor", f, "%")
	}
	if f, ok := parseFloat("humidity"); ok {
		set("humidity", f, "%")
	}

	// Pressure arrives in inHg
	if f, ok := parseFloat("baromrelin"); ok {
		set("pressure", f*33.8639, "hPa")
	}
	if f, ok := parseFloat("baromabsin"); ok {
		set("pressure_absolute", f*33.8639, "hPa")
	}

	// Wind arrives in mph
	if f, ok := parseFloat("winddir"); ok {
		set("wind_direction", f, "°")
	}
	if f, ok := parseFloat("windspeedmph"); ok {
		set("wind_speed", f*0.44704, "m/s")
	}
	if f, ok := parseFloat("windgustmph"); ok {
		set("wind_gust", f*0.44704, "m/s")
	}

	if f, ok := parseFloat("solarradiation"); ok {
		set("solar_radiation", f, "W/m²")
	}
	if f, ok := parseFloat("uv"); ok {
		set("uv_index", f, "")
	}

	// Rain arrives in inches
	if f, ok := parseFloat("rainratein"); ok {
		set("rain_rate", f*25.4, "mm/h")
	}
	if f, ok := parseFloat("dailyrainin"); ok {
		set("rain_daily", f*25.4, "mm")
	}

	if f, ok := parseFloat("wh65batt"); ok {
		set("battery", f, "")
	}

	if len(batch.Fields) == 0 {
		return nil, fmt.Errorf("push from %s contained no known measurements", passKey)
	}

	return batch, nil
}
