package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Topics is an ordered list of lesson topics stored as a JSON array in a
// text column.  Anything that does not decode as an array of strings reads
// back as an empty list.
type Topics []string

// Scan implements sql.Scanner.
func (t *Topics) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Topics{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("topics: unsupported column type %T", src)
	}
	*t = ParseTopics(raw)
	return nil
}

// Value implements driver.Valuer.
func (t Topics) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MarshalJSON renders a nil list as [] rather than null.
func (t Topics) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// ParseTopics decodes a JSON array of strings, returning an empty list on
// any parse failure.
func ParseTopics(raw []byte) Topics {
	if len(raw) == 0 {
		return Topics{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return Topics{}
	}
	return Topics(out)
}
