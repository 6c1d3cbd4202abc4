package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringArray stores a string slice in a way that works across the
// supported databases: JSON text on MySQL/SQLite, and it also reads the
// native {a,b,c} array format produced by PostgreSQL.
type StringArray []string

// Scan implements the sql.Scanner interface for reading from the database.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return a.scanBytes(v)
	case string:
		return a.scanBytes([]byte(v))
	default:
		return errors.New("StringArray: unsupported scan type")
	}
}

func (a *StringArray) scanBytes(data []byte) error {
	str := string(data)

	// JSON array (MySQL/SQLite)
	if strings.HasPrefix(str, "[") {
		return json.Unmarshal(data, a)
	}

	// PostgreSQL array format: {item1,item2,item3}
	if strings.HasPrefix(str, "{") && strings.HasSuffix(str, "}") {
		str = strings.TrimPrefix(str, "{")
		str = strings.TrimSuffix(str, "}")
		if str == "" {
			*a = []string{}
			return nil
		}
		*a = strings.Split(str, ",")
		for i, s := range *a {
			(*a)[i] = strings.Trim(s, `"`)
		}
		return nil
	}

	// Fallback: treat as single item
	*a = []string{str}
	return nil
}

// Value implements the driver.Valuer interface for writing to the database.
// JSON format works across all supported databases.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Contains reports whether the array holds the given value.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// GormDataType returns the GORM data type hint.
func (StringArray) GormDataType() string {
	return "text"
}
