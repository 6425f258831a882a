package model

import (
	"encoding/json"
	"fmt"
)

// scanJSON decodes a jsonb column value into dst. Postgres hands jsonb back
// as []byte, the simple protocol occasionally as string.
func scanJSON(src interface{}, dst interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
