package form

import (
	"context"
	"errors"
	"fmt"
)

// Step is a page of the wizard.
type Step int

const (
	StepAccount  Step = 1 // Credentials
	StepPersonal Step = 2 // Personal information
	StepImages   Step = 3 // Photo and signature uploads
	StepDone     Step = 4 // Terminal success screen
)

// String returns the step's display name.
func (s Step) String() string {
	switch s {
	case StepAccount:
		return "Account"
	case StepPersonal:
		return "Personal"
	case StepImages:
		return "Image"
	case StepDone:
		return "Finish"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Submitter sends the completed form to the registration endpoint.
// A *ServerValidationError return is a structured rejection; any other
// error is an unstructured failure.
type Submitter interface {
	Submit(ctx context.Context, data Data) error
}

// OutcomeKind classifies the result of a step submission.
type OutcomeKind int

const (
	OutcomeIgnored   OutcomeKind = iota // Terminal state or submission already in flight
	OutcomeAdvanced                     // Moved to the next step without the network
	OutcomePending                      // Final step valid, network submission must run
	OutcomeCompleted                    // Server accepted the registration
	OutcomeInvalid                      // Local validation failed
	OutcomeRejected                     // Server returned per-field errors
	OutcomeFailed                       // Network or unexpected response failure
)

// Outcome is the result of a step submission.
type Outcome struct {
	Kind   OutcomeKind
	Step   Step        // Step after the transition
	Errors FieldErrors // Field error state after the transition
	Err    error       // Underlying error for Invalid, Rejected and Failed
}

// Controller owns the wizard's step, its accumulated form data and the
// per-field error state. It is not safe for concurrent use; only
// Submission.Run may execute off the caller's goroutine.
type Controller struct {
	step      Step
	data      Data
	errors    FieldErrors
	submitter Submitter
	inFlight  bool
}

// NewController creates a controller at StepAccount.
func NewController(submitter Submitter) *Controller {
	return &Controller{
		step:      StepAccount,
		errors:    FieldErrors{},
		submitter: submitter,
	}
}

// Step returns the current step.
func (c *Controller) Step() Step {
	return c.step
}

// Data returns the accumulated form values.
func (c *Controller) Data() Data {
	return c.data
}

// Errors returns a copy of the current field error state.
func (c *Controller) Errors() FieldErrors {
	return c.errors.Clone()
}

// Submitting reports whether a network submission is in flight.
func (c *Controller) Submitting() bool {
	return c.inFlight
}

// Done reports whether the wizard reached its terminal state.
func (c *Controller) Done() bool {
	return c.step == StepDone
}

// Update stores values without validating or changing step.
func (c *Controller) Update(values Data) {
	if c.step == StepDone || c.inFlight {
		return
	}
	c.data = values
}

// Previous moves back one step. It is a no-op on the first step, on the
// terminal step and while a submission is in flight. No data is discarded.
func (c *Controller) Previous() Step {
	if c.inFlight || c.step == StepDone || c.step <= StepAccount {
		return c.step
	}
	c.step--
	return c.step
}

// Submission is a pending network submission of a data snapshot.
type Submission struct {
	submitter Submitter
	data      Data
}

// Data returns the snapshot being submitted.
func (s *Submission) Data() Data {
	return s.data
}

// Run performs the network call. It touches no controller state and may
// run on another goroutine.
func (s *Submission) Run(ctx context.Context) error {
	if s.submitter == nil {
		return errors.New("no registration endpoint configured")
	}
	return s.submitter.Submit(ctx, s.data)
}

// Begin stores values, clears the field error state and validates the
// current step. On the first two steps a valid form advances immediately.
// On the final step it returns OutcomePending with a Submission that must be
// run and then passed to Finish.
func (c *Controller) Begin(values Data) (Outcome, *Submission) {
	if c.step == StepDone || c.inFlight {
		return c.outcome(OutcomeIgnored, nil), nil
	}

	c.data = values
	c.errors = FieldErrors{}

	if err := ValidateStep(c.step, c.data); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.errors = verr.Fields.Clone()
		}
		return c.outcome(OutcomeInvalid, err), nil
	}

	if c.step < StepImages {
		c.step++
		return c.outcome(OutcomeAdvanced, nil), nil
	}

	c.inFlight = true
	return c.outcome(OutcomePending, nil), &Submission{submitter: c.submitter, data: c.data}
}

// Finish resolves an in-flight submission with the result of
// Submission.Run.
func (c *Controller) Finish(err error) Outcome {
	if !c.inFlight {
		return c.outcome(OutcomeIgnored, nil)
	}
	c.inFlight = false

	if err == nil {
		c.step = StepDone
		c.errors = FieldErrors{}
		return c.outcome(OutcomeCompleted, nil)
	}

	next, structured := MapFailure(c.errors, err)
	if !structured {
		return c.outcome(OutcomeFailed, err)
	}
	c.errors = next
	return c.outcome(OutcomeRejected, err)
}

// SubmitStep runs a full step submission synchronously: Begin, then the
// network call and Finish when the final step is valid.
func (c *Controller) SubmitStep(ctx context.Context, values Data) Outcome {
	out, sub := c.Begin(values)
	if sub == nil {
		return out
	}
	return c.Finish(sub.Run(ctx))
}

func (c *Controller) outcome(kind OutcomeKind, err error) Outcome {
	return Outcome{Kind: kind, Step: c.step, Errors: c.errors.Clone(), Err: err}
}
