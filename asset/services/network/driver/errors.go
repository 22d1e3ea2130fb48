/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Stage string

const (
	ConnectStage  Stage = "connect"
	EndorseStage  Stage = "endorse"
	SubmitStage   Stage = "submit"
	CommitStage   Stage = "commit"
	EvaluateStage Stage = "evaluate"
)

var (
	ErrConnection  = errors.New("connection failed")
	ErrEndorsement = errors.New("endorsement failed")
	ErrOrdering    = errors.New("ordering failed")
	ErrCommit      = errors.New("commit failed")
	ErrEvaluation  = errors.New("evaluation failed")
	// ErrNotFound is returned by an evaluation when the chaincode reports a missing asset
	ErrNotFound = errors.New("not found")
)

var stageErrors = map[Stage]error{
	ConnectStage:  ErrConnection,
	EndorseStage:  ErrEndorsement,
	SubmitStage:   ErrOrdering,
	CommitStage:   ErrCommit,
	EvaluateStage: ErrEvaluation,
}

// TransactionError reports the failure of a transaction at a given stage.
type TransactionError struct {
	Stage    Stage
	Function string
	TxID     string
	// Code is the gRPC status code or the transaction validation code name
	Code string
	// Details are the messages returned by the peers involved
	Details  []string
	NotFound bool
	Err      error
}

func (e *TransactionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s of [%s] failed", e.Stage, e.Function)
	if len(e.TxID) != 0 {
		fmt.Fprintf(&sb, " (txID %s)", e.TxID)
	}
	if len(e.Code) != 0 {
		fmt.Fprintf(&sb, " with code %s", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err)
	}
	for _, d := range e.Details {
		fmt.Fprintf(&sb, "\n- %s", d)
	}
	return sb.String()
}

func (e *TransactionError) Unwrap() error { return e.Err }

func (e *TransactionError) Is(target error) bool {
	if target == ErrNotFound {
		return e.NotFound
	}
	return stageErrors[e.Stage] == target
}

// NotFoundPrefix starts the message the asset contract returns for a missing asset.
// Peers and the gateway may put their own context in front of it.
const NotFoundPrefix = "asset not found: "

// IsNotFoundMessage reports whether a chaincode error message denotes a missing asset.
func IsNotFoundMessage(msg string) bool {
	return strings.Contains(msg, NotFoundPrefix)
}

// NewEvaluateError builds the evaluation error for the given chaincode message.
func NewEvaluateError(function string, err error, details ...string) *TransactionError {
	notFound := err != nil && IsNotFoundMessage(err.Error())
	for _, d := range details {
		notFound = notFound || IsNotFoundMessage(d)
	}
	return &TransactionError{Stage: EvaluateStage, Function: function, Details: details, NotFound: notFound, Err: err}
}
