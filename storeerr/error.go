package storeerr

import "fmt"

// NoRecordFound - Custom error to inform that no record was found
type NoRecordFound struct {
	msg string
}

// Error - Used to notify that no record was found
func (E NoRecordFound) Error() string {
	if E.msg == "" {
		return "no record found"
	}
	return E.msg
}

// Is - Makes errors.Is match any NoRecordFound regardless of message
func (E NoRecordFound) Is(target error) bool {
	_, ok := target.(NoRecordFound)
	return ok
}

// RangeViolation - Custom error to inform that an offset, length or value is outside what the store permits.
// Range violations are programming errors and never retried.
type RangeViolation struct {
	msg string
}

// Error - Used to notify a range violation
func (R RangeViolation) Error() string {
	if R.msg == "" {
		return "range violation"
	}
	return R.msg
}

// Is - Makes errors.Is match any RangeViolation regardless of message
func (R RangeViolation) Is(target error) bool {
	_, ok := target.(RangeViolation)
	return ok
}

// Corruption - Custom error to inform that persisted or in-memory structures are inconsistent.
// The structure instance that returned it must be considered unusable, there is no automatic repair.
type Corruption struct {
	msg string
}

// Error - Used to notify corruption
func (C Corruption) Error() string {
	if C.msg == "" {
		return "corrupt structure"
	}
	return C.msg
}

// Is - Makes errors.Is match any Corruption regardless of message
func (C Corruption) Is(target error) bool {
	_, ok := target.(Corruption)
	return ok
}

// Unsupported - Custom error to inform that an operation is not supported, such as removing any other key
// than the most recently inserted one.
type Unsupported struct {
	msg string
}

// Error - Used to notify an unsupported operation
func (U Unsupported) Error() string {
	if U.msg == "" {
		return "unsupported operation"
	}
	return U.msg
}

// Is - Makes errors.Is match any Unsupported regardless of message
func (U Unsupported) Is(target error) bool {
	_, ok := target.(Unsupported)
	return ok
}

// Range - Returns a RangeViolation with a formatted message
func Range(format string, a ...any) error {
	return RangeViolation{msg: fmt.Sprintf(format, a...)}
}

// Corrupt - Returns a Corruption with a formatted message
func Corrupt(format string, a ...any) error {
	return Corruption{msg: fmt.Sprintf(format, a...)}
}

// Unsupport - Returns an Unsupported with a formatted message
func Unsupport(format string, a ...any) error {
	return Unsupported{msg: fmt.Sprintf(format, a...)}
}

// NotFound - Returns a NoRecordFound with a formatted message
func NotFound(format string, a ...any) error {
	return NoRecordFound{msg: fmt.Sprintf(format, a...)}
}
