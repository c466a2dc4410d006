package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Date is a point in time decoded from an ISO 8601 string and kept in UTC.
type Date struct {
	time.Time
}

// ParseDate parses s; strings without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse date %q", s)
	}
	return t.UTC(), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := jsoniter.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "date must be a string")
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(d.Time.UTC().Format(time.RFC3339Nano))
}

var (
	dateType = reflect.TypeOf(Date{})
	timeType = reflect.TypeOf(time.Time{})
)

// stringToDateHook lets mapstructure fill Date and time.Time fields from strings.
func stringToDateHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	raw := reflect.ValueOf(data).String()
	switch to {
	case dateType:
		t, err := ParseDate(raw)
		if err != nil {
			return nil, err
		}
		return Date{Time: t}, nil
	case timeType:
		return ParseDate(raw)
	}
	return data, nil
}
