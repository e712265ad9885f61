// Package cerrors implements the engine's error taxonomy: one typed sum-type
// per layer (Agent, Data, Env, Io, Transport, System), composed by a single
// top-level ChapatyError. See spec §7 for the propagation policy each layer
// follows.
package cerrors

import (
	"errors"
	"fmt"
)

// AgentErrorKind enumerates the ways an agent's logic can fail.
type AgentErrorKind int

const (
	AgentLogic AgentErrorKind = iota
	AgentInvalidInput
	AgentMissingResource
	AgentExecution
)

// AgentError is raised by agent logic or execution. Recovery policy: the
// error is surfaced to the caller but the step loop continues treating the
// action as a no-op.
type AgentError struct {
	Kind  AgentErrorKind
	Msg   string
	Cause error
}

func (e *AgentError) Error() string { return fmt.Sprintf("agent error: %s", e.Msg) }
func (e *AgentError) Unwrap() error { return e.Cause }

func NewAgentError(kind AgentErrorKind, msg string) *AgentError {
	return &AgentError{Kind: kind, Msg: msg}
}

// DataErrorKind enumerates data-layer failure modes: parsing, schema
// mismatch, causality, and domain-value validation.
type DataErrorKind int

const (
	DataInvalidPeriodLength DataErrorKind = iota
	DataInvalidSymbol
	DataCausalityViolation
	DataFrame
	DataTimestampConversion
	DataParseInt
	DataParseFloat
	DataUnexpectedEnumVariant
)

// DataError covers data loading, parsing, domain types, and availability.
// Recovery policy: fatal during build; during Step, logged and the event is
// skipped.
type DataError struct {
	Kind  DataErrorKind
	Msg   string
	Cause error
}

func (e *DataError) Error() string { return fmt.Sprintf("data error: %s", e.Msg) }
func (e *DataError) Unwrap() error { return e.Cause }

func NewDataError(kind DataErrorKind, msg string) *DataError {
	return &DataError{Kind: kind, Msg: msg}
}

func WrapDataError(kind DataErrorKind, msg string, cause error) *DataError {
	return &DataError{Kind: kind, Msg: msg, Cause: cause}
}

// EnvErrorKind enumerates environment configuration/execution failures.
type EnvErrorKind int

const (
	EnvNotBuilt EnvErrorKind = iota
	EnvInvalidState
	EnvInvalidConfig
	EnvMissingEpisodeLength
	EnvEncoding
)

// EnvError covers the gym environment's configuration and execution loop.
// Recovery policy: always fatal.
type EnvError struct {
	Kind  EnvErrorKind
	Msg   string
	Cause error
}

func (e *EnvError) Error() string { return fmt.Sprintf("env error: %s", e.Msg) }
func (e *EnvError) Unwrap() error { return e.Cause }

func NewEnvError(kind EnvErrorKind, msg string) *EnvError {
	return &EnvError{Kind: kind, Msg: msg}
}

// IoErrorKind enumerates file, serialization, and object-store failures.
type IoErrorKind int

const (
	IoIO IoErrorKind = iota
	IoJSON
	IoFileSystem
	IoObjectStoreBuild
	IoUnsupportedFormat
)

// IoError covers file I/O, serialization, and object storage. Recovery
// policy: a cache-read failure is swallowed and falls through to a fresh
// build; a cache-write failure is logged and the run continues.
type IoError struct {
	Kind  IoErrorKind
	Msg   string
	Cause error
}

func (e *IoError) Error() string { return fmt.Sprintf("io error: %s", e.Msg) }
func (e *IoError) Unwrap() error { return e.Cause }

func NewIoError(kind IoErrorKind, msg string) *IoError {
	return &IoError{Kind: kind, Msg: msg}
}

func WrapIoError(kind IoErrorKind, msg string, cause error) *IoError {
	return &IoError{Kind: kind, Msg: msg, Cause: cause}
}

// TransportErrorKind enumerates RPC/network transport failures.
type TransportErrorKind int

const (
	TransportConnection TransportErrorKind = iota
	TransportStream
	TransportRpcTypeNotFound
)

// TransportError covers network transport (streaming RPC) failures.
// Recovery policy: trips the pipeline's cancellation token.
type TransportError struct {
	Kind  TransportErrorKind
	Msg   string
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %s", e.Msg) }
func (e *TransportError) Unwrap() error { return e.Cause }

func NewTransportError(kind TransportErrorKind, msg string) *TransportError {
	return &TransportError{Kind: kind, Msg: msg}
}

func WrapTransportError(kind TransportErrorKind, msg string, cause error) *TransportError {
	return &TransportError{Kind: kind, Msg: msg, Cause: cause}
}

// SystemErrorKind enumerates internal invariant violations and bugs.
type SystemErrorKind int

const (
	SystemAccessDenied SystemErrorKind = iota
	SystemMissingField
	SystemIndexOutOfBounds
	SystemInvariantViolation
)

// SystemError covers internal invariants, access control, and bugs.
// Recovery policy: always fatal — a SystemError should never occur in
// correct code.
type SystemError struct {
	Kind SystemErrorKind
	Msg  string
}

func (e *SystemError) Error() string { return fmt.Sprintf("system error: %s", e.Msg) }

func NewSystemError(kind SystemErrorKind, msg string) *SystemError {
	return &SystemError{Kind: kind, Msg: msg}
}

// ChapatyError is the top-level error composing every layer. Exactly one of
// the typed layer errors is wrapped; callers use errors.As to recover the
// concrete layer when they need to branch on it.
type ChapatyError struct {
	layer error
}

func (e *ChapatyError) Error() string { return e.layer.Error() }
func (e *ChapatyError) Unwrap() error { return e.layer }

// Wrap composes any of the six layer error types into a ChapatyError. Passing
// a nil err returns nil so call sites can do `return cerrors.Wrap(err)`
// unconditionally.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var ce *ChapatyError
	if errors.As(err, &ce) {
		return ce
	}
	return &ChapatyError{layer: err}
}

// IsFatalDuringStep reports whether err must abort the running step loop
// rather than being recorded as a rejected action or a skipped event, per
// spec §7's propagation policy: only System/Env errors are fatal mid-step.
func IsFatalDuringStep(err error) bool {
	var sysErr *SystemError
	var envErr *EnvError
	return errors.As(err, &sysErr) || errors.As(err, &envErr)
}
