package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// Global JSON output flag
	jsonOutput bool

	// Command output streams; tests swap them for buffers.
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errReported is returned after an error has already been written as JSON,
// so the process still exits non-zero without printing it twice.
var errReported = errors.New("error reported")

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning represents a non-fatal warning.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Count int `json:"count"`
}

// outputJSON outputs the response as JSON to stdout.
func outputJSON(resp Response) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// outputSuccess outputs a successful JSON response.
func outputSuccess(data interface{}, meta *Meta) {
	outputJSON(Response{
		OK:   true,
		Data: data,
		Meta: meta,
	})
}

// outputSuccessWithWarnings outputs a successful JSON response with warnings.
func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	outputJSON(Response{
		OK:       true,
		Data:     data,
		Warnings: warnings,
		Meta:     meta,
	})
}

// outputError outputs an error JSON response.
func outputError(code, message string, details interface{}, suggestion string) {
	outputJSON(Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       code,
			Message:    message,
			Details:    details,
			Suggestion: suggestion,
		},
	})
}

// isJSONOutput returns true if JSON output is enabled.
func isJSONOutput() bool {
	return jsonOutput
}

// handleError handles an error appropriately based on output mode.
// In JSON mode, outputs a JSON error. In text mode, returns the error for Cobra.
func handleError(code string, err error, suggestion string) error {
	if jsonOutput {
		outputError(code, err.Error(), nil, suggestion)
		return errReported
	}
	if suggestion != "" {
		return fmt.Errorf("%w\n\n%s", err, suggestion)
	}
	return err
}

// handleErrorMsg handles an error message appropriately based on output mode.
func handleErrorMsg(code, message, suggestion string) error {
	return handleError(code, errors.New(message), suggestion)
}

// fileFailure is the JSON shape of one file that failed in a batch.
type fileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// batchResult finishes a batch command. With no failures it emits data as a
// success; otherwise the data and the failures are reported together and a
// non-nil error is returned so the process exits non-zero.
func batchResult(code string, data interface{}, warnings []Warning, count int, failures []fileFailure) error {
	if len(failures) == 0 {
		if jsonOutput {
			outputSuccessWithWarnings(data, warnings, &Meta{Count: count})
		}
		return nil
	}

	message := fmt.Sprintf("%d file(s) failed", len(failures))
	if jsonOutput {
		outputJSON(Response{
			OK:   false,
			Data: data,
			Error: &ErrorInfo{
				Code:    code,
				Message: message,
				Details: failures,
			},
			Warnings: warnings,
			Meta:     &Meta{Count: count},
		})
		return errReported
	}
	return errors.New(message)
}
