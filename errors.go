package coldb

import (
	"errors"
	"fmt"
	"os"

	"coldb/internal/crypto"
	"coldb/spec"
	"coldb/table"
)

var (
	// ErrProgrammerError wraps precondition violations: an out-of-range
	// ndx, a wrong column type, mutating a subtable view that has lost
	// its parent. These are never recovered internally — the operation
	// they occurred in is refused.
	ErrProgrammerError = errors.New("coldb: programmer error")

	// ErrDecryptionFailed wraps an HMAC mismatch with no valid fallback
	// generation. Fatal to the current operation, not to the process.
	ErrDecryptionFailed = errors.New("coldb: decryption failed")

	// ErrAddressSpaceExhausted wraps a failed anonymous mapping (the
	// process-level equivalent of mmap failing with EAGAIN/EMFILE/ENOMEM).
	ErrAddressSpaceExhausted = errors.New("coldb: address space exhausted")

	// ErrIoError wraps any other file-system failure.
	ErrIoError = errors.New("coldb: I/O error")

	// ErrInvalidFile is returned when a file is smaller than one page but
	// non-empty, or is otherwise structurally invalid.
	ErrInvalidFile = errors.New("coldb: invalid file")
)

// translateError wraps an error from table/spec/column/internal storage
// in the matching kind above, so callers can errors.Is against a small,
// stable surface: precondition errors from table/spec become
// ErrProgrammerError, crypto.ErrDecryptionFailed becomes
// ErrDecryptionFailed, and any *os.PathError becomes ErrIoError. An
// error matching none of these is returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, table.ErrColumnTypeMismatch) ||
		errors.Is(err, table.ErrRowOutOfRange) ||
		errors.Is(err, spec.ErrColumnNotFound) ||
		errors.Is(err, spec.ErrEmptyColumnName) {
		return fmt.Errorf("%w: %w", ErrProgrammerError, err)
	}

	if errors.Is(err, crypto.ErrDecryptionFailed) {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: %w", ErrIoError, err)
	}

	return err
}
