package yedion

import (
	"errors"
	"fmt"
)

// The portal gives no distinguishable signal for a rejected login, it
// simply never renders the next step's element. Any failure up to and
// including the grades menu is therefore reported as one
// undifferentiated authentication failure.
var ErrAuthenticationFailed = errors.New("invalid credentials or portal unreachable")

// ErrReportUnreachable covers failures past authentication: the
// report scope form or the report itself never appeared. These are
// transient portal conditions, retrying the whole scrape is the only
// recovery.
var ErrReportUnreachable = errors.New("grades report unreachable")

// Step names, in the order the driver performs them.
const (
	StepOpenPortal        = "open_portal"
	StepSubmitCredentials = "submit_credentials"
	StepOpenRecordsApp    = "open_records_app"
	StepOpenGradesMenu    = "open_grades_menu"
	StepConfigureScope    = "configure_scope"
	StepSubmitReport      = "submit_report"
	StepAwaitReport       = "await_report"
)

// StepError reports which driver step failed and classifies it as an
// authentication or a report failure.
type StepError struct {
	Step string
	Err  error
	kind error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: step %s: %s", e.kind, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: step %s", e.kind, e.Step)
}

func (e *StepError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.kind, e.Err}
	}
	return []error{e.kind}
}

func authStepError(step string, err error) *StepError {
	return &StepError{Step: step, Err: err, kind: ErrAuthenticationFailed}
}

func reportStepError(step string, err error) *StepError {
	return &StepError{Step: step, Err: err, kind: ErrReportUnreachable}
}
