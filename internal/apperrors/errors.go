package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the stage or concern that produced it.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindTranscription Kind = "transcription"
	KindExtraction    Kind = "extraction"
	KindStorage       Kind = "storage"
	KindNotification  Kind = "notification"
)

// Storage error codes. Callers use them to decide whether a later retry is useful.
const (
	CodeDestinationNotFound = "destination_not_found"
	CodeTransport           = "transport"
)

var (
	ErrDestinationNotFound = errors.New("destination not found")
	ErrTransport           = errors.New("transport failure")
	ErrEmptyAudio          = errors.New("audio payload is empty")
)

// Error is the application error carried across stage boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Code != "" {
		prefix += "/" + e.Code
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match storage errors against the code sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDestinationNotFound:
		return e.Code == CodeDestinationNotFound
	case ErrTransport:
		return e.Code == CodeTransport
	}
	return false
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func Validation(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Cause: cause}
}

func Transcription(message string, cause error) *Error {
	return &Error{Kind: KindTranscription, Message: message, Cause: cause}
}

func Extraction(message string, cause error) *Error {
	return &Error{Kind: KindExtraction, Message: message, Cause: cause}
}

func DestinationNotFound(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Code: CodeDestinationNotFound, Message: message, Cause: cause}
}

func StorageTransport(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Code: CodeTransport, Message: message, Cause: cause}
}

func Notification(channel, message string, cause error) *Error {
	return &Error{Kind: KindNotification, Code: channel, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
