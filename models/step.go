package models

// Step identifies one step of the booking flow, in order.
type Step int

const (
	StepServiceSelection Step = iota + 1
	StepServiceInfo
	StepSlotSelection
	StepOverview
	StepIdentityCollection
	StepPayment
	StepCompletion
)

// Steps lists the booking steps in flow order.
var Steps = []Step{
	StepServiceSelection,
	StepServiceInfo,
	StepSlotSelection,
	StepOverview,
	StepIdentityCollection,
	StepPayment,
	StepCompletion,
}

func (s Step) String() string {
	switch s {
	case StepServiceSelection:
		return "service_selection"
	case StepServiceInfo:
		return "service_info"
	case StepSlotSelection:
		return "slot_selection"
	case StepOverview:
		return "overview"
	case StepIdentityCollection:
		return "identity_collection"
	case StepPayment:
		return "payment"
	case StepCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// StepStatus is the progress state of a single step.
type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepActive     StepStatus = "active"
	StepDone       StepStatus = "done"
)
