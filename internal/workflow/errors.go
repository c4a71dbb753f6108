// Package workflow implements the unattended classification run for
// Cairn. It drives the staged review engine through a state graph
// (ingest → date → describe → candidates → select/assign → finalize),
// auto-approving each machine proposal so a whole artifact can be
// classified without a reviewer in the loop.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrStageFailed  = errors.New("stage execution failed")
	ErrStateMissing = errors.New("required value missing from workflow state")
)
