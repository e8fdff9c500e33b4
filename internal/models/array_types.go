package models

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UUIDArray binds a list of ids as a PostgreSQL uuid[] parameter,
// for use with "= ANY($n::uuid[])".
type UUIDArray []uuid.UUID

// Value implements the driver.Valuer interface
func (a UUIDArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	strs := make([]string, len(a))
	for i, id := range a {
		strs[i] = id.String()
	}
	return pq.Array(strs).Value()
}

// Scan implements the sql.Scanner interface
func (a *UUIDArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var strs []string
	if err := pq.Array(&strs).Scan(src); err != nil {
		return err
	}
	ids := make(UUIDArray, len(strs))
	for i, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	*a = ids
	return nil
}
