package fmclient

import (
	"errors"
	"fmt"
)

// FileMaker Data API error codes the client gives special treatment.
const (
	// codeNoRecords is reported by _find when no records match the request.
	codeNoRecords = "401"

	// codeGeneric is used when a response carries no parsable error message.
	codeGeneric = "500"
)

// Error is a structured failure reported by the FileMaker Data API: the
// first message code from the response envelope plus a description of the
// failed request. Transport-level failures are returned as plain wrapped
// errors, not *Error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("filemaker data api error %s: %s", e.Code, e.Message)
}

// IsNoRecords reports whether err is the Data API's "no records match the
// request" error.
func IsNoRecords(err error) bool {
	var fmErr *Error
	return errors.As(err, &fmErr) && fmErr.Code == codeNoRecords
}
