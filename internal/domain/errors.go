package domain

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// Domain errors represent error conditions in the skyship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("skyship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("skyship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("skyship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("skyship: invalid configuration")
)

// Pipeline error sentinels. Typed errors below unwrap to one of these.
var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrRemoteFrame      = errors.New("remote error frame")
	ErrMalformedArchive = errors.New("malformed archive")
	ErrBlockMismatch    = errors.New("block does not match its cid")
	ErrBlockNotFound    = errors.New("block not found in archive")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrReloadFailed     = errors.New("subscriber reload failed")
	ErrDeliveryFailed   = errors.New("notification delivery failed")
	ErrHandleNotFound   = errors.New("handle not found")
	ErrTransport        = errors.New("transport failure")
)

// FrameErrorKind distinguishes frames that could not be read from frames
// in which the relay reported an error.
type FrameErrorKind int

const (
	FrameMalformed FrameErrorKind = iota
	FrameRemote
)

// FrameError is a per-message failure. The message is dropped.
type FrameError struct {
	Kind FrameErrorKind

	// RemoteKind and Message are set for FrameRemote.
	RemoteKind string
	Message    string

	Err error
}

func (e *FrameError) Error() string {
	if e.Kind == FrameRemote {
		if e.Message == "" {
			return fmt.Sprintf("remote error frame: %s", e.RemoteKind)
		}
		return fmt.Sprintf("remote error frame: %s: %s", e.RemoteKind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed frame: %v", e.Err)
	}
	return "malformed frame"
}

func (e *FrameError) Unwrap() []error {
	sentinel := ErrMalformedFrame
	if e.Kind == FrameRemote {
		sentinel = ErrRemoteFrame
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// ExtractError reports that a block could not be taken out of a commit archive.
type ExtractError struct {
	// Target is the CID that was looked up. Undefined for parse failures.
	Target cid.Cid

	// EntriesScanned is how many archive entries were compared against Target.
	EntriesScanned int

	Err error
}

func (e *ExtractError) Error() string {
	if errors.Is(e.Err, ErrBlockNotFound) {
		return fmt.Sprintf("could not find block %s out of %d entries", e.Target, e.EntriesScanned)
	}
	return fmt.Sprintf("extract block: %v", e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// DecodeError reports a block that does not hold a valid record.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode record: %v", e.Err) }

func (e *DecodeError) Unwrap() []error { return []error{ErrInvalidRecord, e.Err} }

// ReloadError reports a failed registry reload. The previous snapshot stays live.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string { return fmt.Sprintf("reload subscribers: %v", e.Err) }

func (e *ReloadError) Unwrap() []error { return []error{ErrReloadFailed, e.Err} }

// DeliveryError reports a failed notification to a single subscriber.
type DeliveryError struct {
	Destination string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrDeliveryFailed, e.Err} }

// DispatchError is a per-commit failure. The commit is skipped; the stream continues.
type DispatchError struct {
	Repo string
	Seq  int64
	Path string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch commit seq=%d repo=%s path=%s: %v", e.Seq, e.Repo, e.Path, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// TransportError is fatal to the current stream session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }
