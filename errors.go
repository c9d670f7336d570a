package osal

import (
	"errors"
	"fmt"

	"github.com/songwenshuai/go-osal/internal/constants"
)

// Code is a kernel status code, matching the OSAL.h return-code family
// (OSAL_SUCCESS, OSAL_NO_TIMER_AVAIL, and so on).
type Code uint8

const (
	CodeSuccess            Code = constants.Success
	CodeInvalidTask        Code = constants.InvalidTask
	CodeMsgBufferNotAvail  Code = constants.MsgBufferNotAvail
	CodeInvalidMsgPointer  Code = constants.InvalidMsgPointer
	CodeInvalidEventID     Code = constants.InvalidEventID
	CodeInvalidInterruptID Code = constants.InvalidInterruptID
	CodeNoTimerAvail       Code = constants.NoTimerAvail
	CodeNVItemUninit       Code = constants.NVItemUninit
	CodeNVOperFailed       Code = constants.NVOperFailed
	CodeInvalidMemSize     Code = constants.InvalidMemSize
	CodeNVBadItemLen       Code = constants.NVBadItemLen
)

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeInvalidTask:
		return "invalid task"
	case CodeMsgBufferNotAvail:
		return "message buffer not available"
	case CodeInvalidMsgPointer:
		return "invalid message pointer"
	case CodeInvalidEventID:
		return "invalid event id"
	case CodeInvalidInterruptID:
		return "invalid interrupt id"
	case CodeNoTimerAvail:
		return "no timer available"
	case CodeNVItemUninit:
		return "nv item uninitialized"
	case CodeNVOperFailed:
		return "nv operation failed"
	case CodeInvalidMemSize:
		return "invalid memory size"
	case CodeNVBadItemLen:
		return "nv item length mismatch"
	default:
		return fmt.Sprintf("code(%d)", uint8(c))
	}
}

// Error is a structured kernel error with enough context to trace which
// task and operation produced it, mirroring the structured-error shape
// used elsewhere in the retrieved stack but built around status Codes
// instead of device/queue identifiers.
type Error struct {
	Op     string // operation that failed, e.g. "StartTimer", "Allocate"
	TaskID uint8  // 0xFF (constants.Unassigned) when not task-scoped
	Code   Code
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	taskPart := ""
	if e.TaskID != constants.Unassigned {
		taskPart = fmt.Sprintf(" task=%d", e.TaskID)
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Op != "" {
		return fmt.Sprintf("osal: %s:%s %s", e.Op, taskPart, msg)
	}
	return fmt.Sprintf("osal:%s %s", taskPart, msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// NewError creates an error not scoped to a specific task.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, TaskID: constants.Unassigned, Code: code, Msg: msg}
}

// NewTaskError creates an error scoped to a specific task.
func NewTaskError(op string, taskID uint8, code Code, msg string) *Error {
	return &Error{Op: op, TaskID: taskID, Code: code, Msg: msg}
}

// WrapError wraps an existing error with kernel operation context,
// preserving the inner error's Code when it is already structured.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	var e *Error
	if errors.As(inner, &e) {
		return &Error{Op: op, TaskID: e.TaskID, Code: e.Code, Msg: e.Msg, Inner: inner}
	}
	return &Error{Op: op, TaskID: constants.Unassigned, Code: CodeMsgBufferNotAvail, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err carries the given status Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Legacy sentinel values for call sites that only want a comparable
// error rather than a structured one, mirroring the teacher's
// UblkError/Error dual design. Error.Is compares by Code, so
// errors.Is(err, ErrInvalidTask) matches any *Error carrying
// CodeInvalidTask regardless of which Op or TaskID produced it.
var (
	ErrInvalidTask        = &Error{Code: CodeInvalidTask, TaskID: constants.Unassigned}
	ErrMsgBufferNotAvail  = &Error{Code: CodeMsgBufferNotAvail, TaskID: constants.Unassigned}
	ErrInvalidMsgPointer  = &Error{Code: CodeInvalidMsgPointer, TaskID: constants.Unassigned}
	ErrInvalidEventID     = &Error{Code: CodeInvalidEventID, TaskID: constants.Unassigned}
	ErrInvalidInterruptID = &Error{Code: CodeInvalidInterruptID, TaskID: constants.Unassigned}
	ErrNoTimerAvail       = &Error{Code: CodeNoTimerAvail, TaskID: constants.Unassigned}
	ErrNVItemUninit       = &Error{Code: CodeNVItemUninit, TaskID: constants.Unassigned}
	ErrNVOperFailed       = &Error{Code: CodeNVOperFailed, TaskID: constants.Unassigned}
	ErrInvalidMemSize     = &Error{Code: CodeInvalidMemSize, TaskID: constants.Unassigned}
	ErrNVBadItemLen       = &Error{Code: CodeNVBadItemLen, TaskID: constants.Unassigned}
)
