//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error classes. The errors returned by this package are marked with
// one of the classes and can be tested with errors.Is.
var (
	// ErrPrecondition is returned for invalid arguments and API usage
	// violations that are detected locally, without network
	// interaction.
	ErrPrecondition = errors.New("precondition violated")

	// ErrProtocolSync is returned when the parties fail to connect or
	// to agree on the protocol state. The party must be discarded
	// after this error.
	ErrProtocolSync = errors.New("protocol sync failed")

	// ErrRevealAuthorization is returned when a party requests the
	// value of an output that is revealed only to its peer.
	ErrRevealAuthorization = errors.New("reveal not authorized")
)

// Stage identifies the processing stage of a party.
type Stage string

// Party stages.
const (
	StageConfig    Stage = "config"
	StageConnect   Stage = "connect"
	StageBuild     Stage = "build"
	StageHandshake Stage = "handshake"
	StageExecute   Stage = "execute"
	StageReveal    Stage = "reveal"
	StageReset     Stage = "reset"
)

// StageError describes the party and the stage of a failure.
type StageError struct {
	Role  Role
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("P%s %s: %s: %v", e.Role.IDString(), e.Role, e.Stage,
		e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(role Role, stage Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{
		Role:  role,
		Stage: stage,
		Err:   err,
	}
}

func precondition(role Role, stage Stage, format string,
	a ...interface{}) error {

	return stageError(role, stage,
		errors.Mark(errors.Newf(format, a...), ErrPrecondition))
}
