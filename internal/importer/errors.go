package importer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMissingExternalID signals a scraped product carried no marketplace id,
// neither explicitly nor in its URL.
var ErrMissingExternalID = errors.New("product has no marketplace id")

// AlreadyImportedError reports a duplicate import attempt. It is a per-item
// conflict, never a batch-aborting failure.
type AlreadyImportedError struct {
	ProductID uuid.UUID
}

func (e *AlreadyImportedError) Error() string {
	return fmt.Sprintf("product already imported as %s", e.ProductID)
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
