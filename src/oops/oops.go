package oops

import (
	"errors"
	"fmt"

	"github.com/go-stack/stack"
	"github.com/rs/zerolog"
)

// Error carries a message, an optional wrapped error, and the call stack at
// the point it was created. Use New to make one.
type Error struct {
	Message string
	Wrapped error
	Stack   CallStack
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

type CallStack []StackFrame

func (s CallStack) MarshalZerologArray(a *zerolog.Array) {
	for _, frame := range s {
		a.Object(frame)
	}
}

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) MarshalZerologObject(e *zerolog.Event) {
	e.
		Str("file", f.File).
		Int("line", f.Line).
		Str("function", f.Function)
}

// ZerologStackMarshaler reports the innermost stack found in the error chain,
// which is the one closest to where things actually went wrong.
var ZerologStackMarshaler = func(err error) interface{} {
	if s := StackOf(err); s != nil {
		return s
	}
	return nil
}

func StackOf(err error) CallStack {
	var result CallStack
	for err != nil {
		var oopsErr *Error
		if !errors.As(err, &oopsErr) {
			break
		}
		result = oopsErr.Stack
		err = oopsErr.Wrapped
	}
	return result
}

// Trace captures the current call stack, minus the runtime and this function.
func Trace() CallStack {
	trace := stack.Trace().TrimRuntime()
	if len(trace) > 0 {
		trace = trace[1:]
	}
	frames := make(CallStack, len(trace))
	for i, call := range trace {
		callFrame := call.Frame()
		frames[i] = StackFrame{
			File:     callFrame.File,
			Line:     callFrame.Line,
			Function: callFrame.Function,
		}
	}
	return frames
}

func New(wrapped error, format string, args ...interface{}) error {
	trace := Trace()
	if len(trace) > 0 {
		trace = trace[1:]
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Wrapped: wrapped,
		Stack:   trace,
	}
}
