package repository

import (
	"time"

	"github.com/google/uuid"
)

// newID returns a UUIDv7 string.  v7 ids sort by creation time, so
// insertion order equals id order.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// now is the repositories' clock; timestamps are stored in UTC with
// microsecond precision to match DATETIME(6).
var now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
