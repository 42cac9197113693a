// internal/phone/sql.go
//
// database/sql integration for phone values.
//
// A Value travels through sqlx as its storable column form (plain string
// or inline JSON), so listing rows scan and persist without the listing
// store knowing which variant a slot holds.

package phone

import (
	"database/sql/driver"
	"fmt"
)

// Value implements driver.Valuer.  Structured values flatten to JSON here,
// which is the "serialize before persist" step of the save pipeline.
func (v Value) Value() (driver.Value, error) {
	return v.Storable(), nil
}

// Scan implements sql.Scanner.
func (v *Value) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = Parse(s)
	case []byte:
		*v = Parse(string(s))
	default:
		return fmt.Errorf("phone: cannot scan %T", src)
	}
	return nil
}
