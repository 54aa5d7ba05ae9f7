package fetch

import (
	"errors"
	"fmt"
)

// ErrRedirectLoop reports that a redirect chain revisited a URL.
var ErrRedirectLoop = errors.New("redirect loop detected")

// ErrSecureTransportUnavailable reports that HTTPS cannot be served natively.
// It normally triggers the external-downloader escape hatch and only reaches
// callers when no downloader tool is available either.
var ErrSecureTransportUnavailable = errors.New("secure transport unavailable")

// UnsupportedSchemeError reports a URL scheme the client does not speak.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported protocol %q", e.Scheme)
}

// UnsupportedRedirectError reports a redirect to a target the client cannot
// follow. Distinct from UnsupportedSchemeError so callers can tell a bad
// request from a server that led them somewhere unreachable.
type UnsupportedRedirectError struct {
	URL string
}

func (e *UnsupportedRedirectError) Error() string {
	return fmt.Sprintf("redirected to unsupported target %s", e.URL)
}

// TransportError reports a failed transfer attempt. Status carries the raw
// server status when one was received (e.g. "404 Not Found"); Cached marks a
// failure replayed from the sidecar cache without a network call.
type TransportError struct {
	URL    string
	Status string
	Cached bool
	Err    error
}

func (e *TransportError) Error() string {
	reason := e.Status
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Cached {
		return fmt.Sprintf("download of %s failed: %s (cached failure)", e.URL, reason)
	}
	return fmt.Sprintf("download of %s failed: %s", e.URL, reason)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// failureStatus returns the string persisted in the .status sidecar for err.
func failureStatus(err error) string {
	var te *TransportError
	if errors.As(err, &te) && te.Status != "" {
		return te.Status
	}
	return err.Error()
}
