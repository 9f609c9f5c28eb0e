package checkpoint

import (
	"errors"
	"fmt"
)

// ErrStorage matches every *StorageError.
var ErrStorage = errors.New("checkpoint storage error")

// Format errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// StorageError reports a failure to read or write a checkpoint.
//
// It matches ErrStorage with errors.Is and unwraps to the underlying cause,
// so errors.Is(err, fs.ErrNotExist) or errors.Is(err, ErrChecksumMismatch)
// also work.
type StorageError struct {
	Op   string // "save", "load" or "read header"
	Path string // Checkpoint file path
	Err  error  // Underlying cause
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// ValidationError provides detailed information about a malformed header.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "out_of_bounds")
	Tensor  string // Primary tensor name involved
	Tensor2 string // Secondary tensor name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
