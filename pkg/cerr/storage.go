package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/jobflow/pkg/storage"
)

// WrapStorageReadError maps a storage failure to NotFound when the object is
// missing and to Unavailable otherwise. target names the object for the
// caller, e.g. "snapshot".
func WrapStorageReadError(target string, err error) error {
	return wrapStorage("read", target, err)
}

func WrapStorageWriteError(target string, err error) error {
	return wrapStorage("write", target, err)
}

func WrapStorageDeleteError(target string, err error) error {
	return wrapStorage("delete", target, err)
}

func wrapStorage(op, target string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Unavailable, "storage unavailable", fmt.Errorf("failed to %s %s: %w", op, target, err))
}
