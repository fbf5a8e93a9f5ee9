package models

import (
	"database/sql/driver"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// jsonValue marshals v for storage in a TEXT column.
func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(data), nil
}

// jsonScan unmarshals a TEXT column into dest, treating NULL and the empty
// string as the zero value.
func jsonScan(src interface{}, dest interface{}) error {
	if src == nil {
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("unsupported json column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}

	return errors.WithStack(json.Unmarshal(data, dest))
}
