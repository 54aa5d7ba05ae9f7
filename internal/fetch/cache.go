package fetch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sidecar files persisted beside a downloaded artifact:
//
//	<path>.timestamp — raw Last-Modified value from the last successful probe
//	<path>.status    — raw status of the last failed attempt (absent on success)
//	<path>.unixtime  — epoch seconds of the last recorded attempt
//
// A .status present without a fresher .timestamp means "last attempt failed".
// The files are not synchronized: concurrent processes fetching to the same
// destination race with last-writer-wins semantics.
const (
	suffixTimestamp = ".timestamp"
	suffixStatus    = ".status"
	suffixUnixtime  = ".unixtime"
)

// sidecarState is the decoded cache record for a destination path.
type sidecarState struct {
	LastModified string    // empty when no successful probe was recorded
	Status       string    // empty when the last attempt succeeded
	AttemptAt    time.Time // zero when no attempt was recorded
}

// readSidecars loads whatever cache record exists beside dest. Missing or
// malformed files read as absent values.
func readSidecars(dest string) sidecarState {
	var st sidecarState
	if data, err := os.ReadFile(dest + suffixTimestamp); err == nil {
		st.LastModified = strings.TrimSpace(string(data))
	}
	if data, err := os.ReadFile(dest + suffixStatus); err == nil {
		st.Status = strings.TrimSpace(string(data))
	}
	if data, err := os.ReadFile(dest + suffixUnixtime); err == nil {
		if secs, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); err == nil {
			st.AttemptAt = time.Unix(secs, 0)
		}
	}
	return st
}

// writeSuccess records a successful transfer: Last-Modified and attempt time
// are written and any recorded failure is cleared.
func writeSuccess(dest, lastModified string, now time.Time) error {
	if err := writeSidecar(dest+suffixTimestamp, lastModified); err != nil {
		return err
	}
	if err := writeAttempt(dest, now); err != nil {
		return err
	}
	// Best-effort: a stale .status with a fresh .timestamp is still success.
	os.Remove(dest + suffixStatus)
	return nil
}

// writeFailure records a failed attempt's raw status and attempt time.
func writeFailure(dest, status string, now time.Time) error {
	if err := writeSidecar(dest+suffixStatus, status); err != nil {
		return err
	}
	return writeAttempt(dest, now)
}

// writeAttempt refreshes only the attempt timestamp, as done when a probe
// confirms the cached artifact is still current.
func writeAttempt(dest string, now time.Time) error {
	return writeSidecar(dest+suffixUnixtime, strconv.FormatInt(now.Unix(), 10))
}

func writeSidecar(path, value string) error {
	if err := os.WriteFile(path, []byte(value+"\n"), 0644); err != nil {
		return fmt.Errorf("writing sidecar %s: %w", path, err)
	}
	return nil
}
