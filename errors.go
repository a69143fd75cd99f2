package internstore

import (
	"github.com/gostonefire/internstore/internal/file"
	"github.com/gostonefire/internstore/storeerr"
)

// The error types returned by indexes. Match them with errors.Is, messages are not compared:
//
//	if errors.Is(err, internstore.Corruption{}) { ... }
type (
	// NoRecordFound - A lookup or iteration found nothing
	NoRecordFound = storeerr.NoRecordFound

	// RangeViolation - An offset, handle, size or value is outside what is permitted
	RangeViolation = storeerr.RangeViolation

	// Corruption - Stored data is inconsistent
	Corruption = storeerr.Corruption

	// Unsupported - The operation is not supported in the current state
	Unsupported = storeerr.Unsupported
)

// ErrLocked - Returned when index files are locked by another writer, or by a reader when opening for writing
var ErrLocked = file.ErrLocked
