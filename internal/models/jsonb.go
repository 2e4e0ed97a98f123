package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// To satisfy postgres jsonb data type
type StringList []string

func (l *StringList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, l)
}

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

type UintList []uint

func (l *UintList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, l)
}

func (l UintList) Value() (driver.Value, error) {
	return json.Marshal(l)
}
