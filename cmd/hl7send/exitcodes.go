package main

import (
	"github.com/myeof/gomllp"
	"github.com/myeof/gomllp/hl7"
	"github.com/pkg/errors"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK            = 0
	exitFailure       = 1
	exitUsage         = 2
	exitTooLarge      = 3
	exitConnection    = 4
	exitTimeout       = 5
	exitEmptyResponse = 6
	exitIO            = 7
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode maps an error onto the failure class scripts branch on.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	var be *hl7.BuildError
	if errors.As(err, &be) {
		if be.Kind == hl7.KindPayloadTooLarge {
			return exitTooLarge
		}
		return exitUsage
	}
	var se *mllp.SendError
	if errors.As(err, &se) {
		switch {
		case se.Timeout():
			return exitTimeout
		case se.Kind == mllp.KindConnection:
			return exitConnection
		case se.Kind == mllp.KindEmptyResponse:
			return exitEmptyResponse
		default:
			return exitIO
		}
	}
	return exitFailure
}
