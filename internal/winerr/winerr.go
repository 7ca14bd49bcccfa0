// Package winerr renders Win32 error codes as their system message text.
//
// The lookup is a pure table with no process-wide state, so errors can be
// built anywhere without touching a thread-local last-error slot. Insert
// placeholders such as %1 stay literal; no parameter substitution happens.
package winerr

import "fmt"

// Code is a Win32 system error code.
type Code uint32

const (
	Success              Code = 0
	FileNotFound         Code = 2
	PathNotFound         Code = 3
	AccessDenied         Code = 5
	InvalidHandle        Code = 6
	NotEnoughMemory      Code = 8
	InvalidData          Code = 13
	InvalidParameter     Code = 87
	InsufficientBuffer   Code = 122
	ModNotFound          Code = 126
	BadExeFormat         Code = 193
	MrMidNotFound        Code = 317
	NoAccess             Code = 998
	ResourceDataNotFound Code = 1812
	ResourceTypeNotFound Code = 1813
	ResourceNameNotFound Code = 1814
	ResourceLangNotFound Code = 1815
)

var messages = map[Code]string{
	Success:              "The operation completed successfully.",
	FileNotFound:         "The system cannot find the file specified.",
	PathNotFound:         "The system cannot find the path specified.",
	AccessDenied:         "Access is denied.",
	InvalidHandle:        "The handle is invalid.",
	NotEnoughMemory:      "Not enough storage is available to process this command.",
	InvalidData:          "The data is invalid.",
	InvalidParameter:     "The parameter is incorrect.",
	InsufficientBuffer:   "The data area passed to a system call is too small.",
	ModNotFound:          "The specified module could not be found.",
	BadExeFormat:         "%1 is not a valid Win32 application.",
	MrMidNotFound:        "The system cannot find message text for message number 0x%1 in the message file for %2.",
	NoAccess:             "Invalid access to memory location.",
	ResourceDataNotFound: "The specified image file did not contain a resource section.",
	ResourceTypeNotFound: "The specified resource type cannot be found in the image file.",
	ResourceNameNotFound: "The specified resource name cannot be found in the image file.",
	ResourceLangNotFound: "The specified resource language ID cannot be found in the image file.",
}

// Message returns the system text for code, or a placeholder when the code
// is not in the table. The returned text carries no trailing whitespace.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "<error message unavailable>"
}

// Error is a failure tagged with its Win32 error code.
type Error struct {
	Code Code
}

// New returns an error for the given code.
func New(code Code) *Error {
	return &Error{Code: code}
}

func (e *Error) Error() string {
	return fmt.Sprintf("(%d) %s", e.Code, Message(e.Code))
}

// Is matches any *Error carrying the same code, so errors.Is works through
// wrapped chains.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
