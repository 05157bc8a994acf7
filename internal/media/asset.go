// AngelaMos | 2026
// asset.go

package media

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Asset references an object in the asset store. ID is the store key used
// for deletion.
type Asset struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

func (a Asset) IsZero() bool {
	return a.ID == "" && a.URL == ""
}

func (a Asset) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Asset) Scan(src any) error {
	return scanJSON(src, a)
}

type Assets []Asset

func (a Assets) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Assets) Scan(src any) error {
	return scanJSON(src, a)
}

func scanJSON(src, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}

	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, dst)
}
