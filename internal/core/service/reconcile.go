package service

import "github.com/sdm/cabinet-client/internal/core/domain"

// WriteOutcome describes a finished background write of one ingredient field.
type WriteOutcome struct {
	Ingredient string
	Field      domain.Field
	Seq        uint64
	// Latest is true when no newer write for the same field was issued
	// after this one.
	Latest bool
	Err    error
}

// ReconcilePolicy decides what happens to the optimistic local value once
// its write finishes. Returning true restores the value the field had
// before the write.
type ReconcilePolicy interface {
	Rollback(outcome WriteOutcome) bool
}

// LastWriteWins keeps the optimistic value no matter how the write ended.
type LastWriteWins struct{}

func (LastWriteWins) Rollback(WriteOutcome) bool { return false }

// RollbackOnFailure restores the previous value when the latest write for a
// field fails. Failures of superseded writes are ignored.
type RollbackOnFailure struct{}

func (RollbackOnFailure) Rollback(o WriteOutcome) bool {
	return o.Err != nil && o.Latest
}
