// Package transform reshapes raw API records into store documents. It is
// pure: no I/O, no retries.
package transform

import (
	"fmt"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"pulsefeed/internal/config"
	mdb "pulsefeed/internal/mongo"
)

// InvalidRecordError marks a record the transformer cannot shape. The caller
// skips the record and continues the run.
type InvalidRecordError struct {
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record: %s", e.Reason)
}

type Transformer struct {
	connectorName string
	baseURL       string
	city          string
	policy        *bluemonday.Policy
	now           func() time.Time
}

func New(cfg config.Config) *Transformer {
	return &Transformer{
		connectorName: cfg.ConnectorName,
		baseURL:       cfg.BaseURL,
		city:          cfg.City,
		policy:        bluemonday.StrictPolicy(),
		now:           time.Now,
	}
}

func (t *Transformer) base(source string, raw map[string]any) mdb.RecordDoc {
	return mdb.RecordDoc{
		IngestionTimestamp: t.now().UTC(),
		ConnectorName:      t.connectorName,
		Source:             source,
		SourceBaseURL:      t.baseURL,
		SourceCity:         t.city,
		Raw:                raw,
	}
}

// Pulse shapes one OTX pulse. The full raw payload is kept; a handful of
// searchable fields are lifted to the top level when present. Absent
// optional fields stay unset.
func (t *Transformer) Pulse(raw any) (mdb.RecordDoc, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return mdb.RecordDoc{}, &InvalidRecordError{Reason: "record is not an object"}
	}

	doc := t.base("otx", m)

	if info, ok := m["pulse_info"].(map[string]any); ok {
		doc.PulseName = t.policy.Sanitize(asString(info["name"]))
		doc.PulseID = asString(info["id"])
		doc.PulseCreated = asString(info["created"])
		doc.PulseModified = asString(info["modified"])
	}
	if doc.PulseID == "" {
		doc.PulseID = asString(m["id"])
	}
	if doc.PulseName == "" {
		doc.PulseName = t.policy.Sanitize(asString(m["name"]))
	}
	if n, ok := asInt(m["indicator_count"]); ok {
		doc.IndicatorCount = &n
	}

	return doc, nil
}

// Weather shapes one OpenWeather current-conditions observation. The "main"
// metric block is required; everything else is optional.
func (t *Transformer) Weather(raw any) (mdb.RecordDoc, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return mdb.RecordDoc{}, &InvalidRecordError{Reason: "record is not an object"}
	}
	metrics, ok := m["main"].(map[string]any)
	if !ok {
		return mdb.RecordDoc{}, &InvalidRecordError{Reason: "missing main metric block"}
	}

	doc := t.base("weather", m)
	doc.City = asString(m["name"])
	doc.PulseID = asString(m["id"])

	if v, ok := metrics["temp"].(float64); ok {
		doc.TempC = &v
	}
	if n, ok := asInt(metrics["pressure"]); ok {
		doc.Pressure = &n
	}
	if n, ok := asInt(metrics["humidity"]); ok {
		doc.Humidity = &n
	}
	if ts, ok := asInt(m["dt"]); ok {
		obs := time.Unix(int64(ts), 0).UTC()
		doc.ObservedAt = &obs
	}

	return doc, nil
}

// Validate gates a document before load: it must carry an ingestion
// timestamp and the raw payload.
func Validate(d mdb.RecordDoc) bool {
	return !d.IngestionTimestamp.IsZero() && d.Raw != nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func asInt(v any) (int, bool) {
	if f, ok := v.(float64); ok {
		return int(f), true
	}
	return 0, false
}
