package redis

import (
	"encoding/json"
	"regexp"
	"time"
)

// isoDateRE matches ISO-8601 date-times with optional fractional seconds
// or omitted seconds, and a timezone offset or "Z". It is deliberately
// broad: any string value that looks like a date-time is revived, even
// one that was never meant as a date. That behavior is part of the cache
// format and must not be tightened.
var isoDateRE = regexp.MustCompile(
	`(\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d:[0-5]\d\.\d+([+-][0-2]\d:[0-5]\d|Z))` +
		`|(\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d:[0-5]\d([+-][0-2]\d:[0-5]\d|Z))` +
		`|(\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d([+-][0-2]\d:[0-5]\d|Z))`)

var reviveLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// reviveString turns a string into a time.Time when the whole value
// parses as an ISO-8601 date-time. Strings that merely contain a
// date-time-shaped substring fail the parse and stay strings.
func reviveString(s string) interface{} {
	if !isoDateRE.MatchString(s) {
		return s
	}
	for _, layout := range reviveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return s
}

func revive(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return reviveString(val)
	case map[string]interface{}:
		for k, item := range val {
			val[k] = revive(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = revive(item)
		}
		return val
	default:
		return v
	}
}

// decodeRevived parses cached JSON, replacing every ISO-8601 date-time
// string in the value tree with a time.Time.
func decodeRevived(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return revive(v), nil
}
