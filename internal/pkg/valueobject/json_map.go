// Package valueobject holds small value types shared by entities and storage.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// ErrScanValueNotBytes indicates the database value is not a byte slice.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap stores arbitrary JSON object data attached to a record.
type JSONMap map[string]any

// Value implements driver.Valuer. An empty map is stored as NULL.
func (j JSONMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner. NULL scans into an empty map.
func (j *JSONMap) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		// pgx decodes jsonb straight into a map
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	if len(raw) == 0 {
		*j = JSONMap{}
		return nil
	}

	result := JSONMap{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}

	*j = result
	return nil
}

// Clone returns a shallow copy, never nil.
func (j JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(j))
	maps.Copy(out, j)
	return out
}

// Has checks if a key exists.
func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString returns "" if the key is missing or not a string.
func (j JSONMap) GetString(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}
