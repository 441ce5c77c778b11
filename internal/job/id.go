package job

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDFunc returns a fresh, process-unique identifier.
type IDFunc func() string

func NewULID() string {
	return ulid.Make().String()
}

func NewUUID() string {
	return uuid.NewString()
}

// IDFuncFor maps a configured scheme name to its generator.
func IDFuncFor(scheme string) (IDFunc, error) {
	switch scheme {
	case "", "ulid":
		return NewULID, nil
	case "uuid":
		return NewUUID, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
