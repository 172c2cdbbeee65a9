package booking

import "errors"

// Decision is the user-facing outcome of classifying a failure.
type Decision struct {
	Headline string
	Detail   string
}

// ErrorReporter turns a saga failure into a user-facing decision. The generic
// classification/retry machinery lives outside this module; the saga only
// consumes the resulting copy.
type ErrorReporter interface {
	Decide(err error) Decision
}

// DefaultReporter maps the saga error taxonomy to plain messages.
type DefaultReporter struct{}

func (DefaultReporter) Decide(err error) Decision {
	var pre *PreconditionError
	var saga *SagaError
	var method *UnsupportedMethodError
	var comp *CompensationError

	switch {
	case errors.As(err, &pre):
		return Decision{
			Headline: "Missing information",
			Detail:   "Fill in the highlighted fields before continuing.",
		}
	case errors.As(err, &method):
		return Decision{
			Headline: "Payment method not available",
			Detail:   "Choose instant transfer or card to continue.",
		}
	case errors.As(err, &comp):
		return Decision{
			Headline: "Could not undo the previous step",
			Detail:   "Your reservation is still held. Try going back again in a moment.",
		}
	case errors.As(err, &saga):
		switch saga.Stage {
		case "hold":
			return Decision{
				Headline: "Time slot unavailable",
				Detail:   "We could not reserve this time. Pick another slot and try again.",
			}
		case "identity":
			return Decision{
				Headline: "Could not save your details",
				Detail:   "Check your personal data and try again.",
			}
		case "confirm":
			return Decision{
				Headline: "Could not confirm the appointment",
				Detail:   "Your slot is still reserved. Try again in a moment.",
			}
		case "charge":
			return Decision{
				Headline: "Payment failed",
				Detail:   "Review your payment details and try again.",
			}
		}
		return Decision{Headline: "Something went wrong", Detail: "Try again in a moment."}
	case errors.Is(err, ErrSagaBusy):
		return Decision{
			Headline: "Hold on",
			Detail:   "We are still processing your previous action.",
		}
	default:
		return Decision{Headline: "Something went wrong", Detail: "Try again in a moment."}
	}
}
