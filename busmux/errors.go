// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package busmux

// BusError wraps a failure of the underlying bus transport (a transfer or a
// flush). The select line state is consistent when a BusError is returned: the
// failing transaction's cleanup ran before the error surfaced.
type BusError struct {
	Err error
}

func (e *BusError) Error() string { return "busmux: bus error: " + e.Err.Error() }

func (e *BusError) Unwrap() error { return e.Err }

// SelectError wraps a failure to drive a device's select line.
type SelectError struct {
	Err error
}

func (e *SelectError) Error() string { return "busmux: select error: " + e.Err.Error() }

func (e *SelectError) Unwrap() error { return e.Err }
