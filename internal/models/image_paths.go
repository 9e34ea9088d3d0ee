package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// MaxPostImages is the upper bound on images attached to one post
const MaxPostImages = 4

// ImagePaths is the ordered list of storage paths of a post's images.
// Duplicates are allowed. It is stored as a JSON array in a text column;
// NULL, "" and "[]" all read back as an empty list.
type ImagePaths []string

// Scan implements sql.Scanner on top of datatypes.JSONSlice, which rejects NULL and ""
func (p *ImagePaths) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = ImagePaths{}
		return nil
	case string:
		if v == "" {
			*p = ImagePaths{}
			return nil
		}
	case []byte:
		if len(v) == 0 {
			*p = ImagePaths{}
			return nil
		}
	}

	var paths datatypes.JSONSlice[string]
	if err := paths.Scan(value); err != nil {
		return fmt.Errorf("decode image paths: %w", err)
	}
	if paths == nil {
		paths = datatypes.JSONSlice[string]{}
	}
	*p = ImagePaths(paths)
	return nil
}

// Value implements driver.Valuer
func (p ImagePaths) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	v, err := datatypes.NewJSONSlice([]string(p)).Value()
	if err != nil {
		return nil, err
	}
	return string(v.([]byte)), nil
}

// GormDataType keeps the column a plain text column on every dialect
func (ImagePaths) GormDataType() string {
	return "text"
}

// MarshalJSON always emits an array, never null
func (p ImagePaths) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}
