package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// StringList is an ordered TEXT[] column (fitness goals keep their order)
type StringList []string

// Value implements the driver.Valuer interface
func (a StringList) Value() (driver.Value, error) {
	if a == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array([]string(a)).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringList) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}

// Clone returns an independent copy
func (a StringList) Clone() StringList {
	if a == nil {
		return nil
	}
	out := make(StringList, len(a))
	copy(out, a)
	return out
}
