package memory

import "fmt"

// PersistenceError reports a failure in the relational store. It is fatal
// to the operation that raised it and always propagates to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SemanticIndexError reports a failure in the embedding encoder or vector
// index. It is recovered at the Manager boundary: reads fall back to
// keyword search, writes are dropped with a logged warning.
type SemanticIndexError struct {
	Op  string
	Err error
}

func (e *SemanticIndexError) Error() string {
	return fmt.Sprintf("semantic index: %s: %v", e.Op, e.Err)
}

func (e *SemanticIndexError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func indexErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SemanticIndexError{Op: op, Err: err}
}
