package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicbook/models"

	"go.uber.org/zap"
)

// Deps are the collaborators a controller drives. Everything is injected;
// the controller reads no ambient global state.
type Deps struct {
	Reservations ReservationClient
	Identity     IdentityClient
	Payments     PaymentClient
	Engine       CompensationEngine
	Sink         ProgressSink
	Reporter     ErrorReporter
	Logger       *zap.Logger
	SettleDelay  time.Duration
}

// Controller is the finite-state orchestrator for one booking attempt. It
// owns the only mutable current-step value and the selection, and drives
// Advance/Retreat by combining the remote clients with the compensation
// engine. All state lives in memory for the lifetime of the attempt.
type Controller struct {
	deps  Deps
	actor models.Actor

	// Saga-scoped context: every remote call is bound to it, so closing the
	// session cancels whatever is still in flight.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	busy      bool
	current   models.Step
	statuses  map[models.Step]models.StepStatus
	selection models.BookingSelection
}

// NewController creates a controller for the given actor with step 1 active.
func NewController(actor models.Actor, deps Deps) *Controller {
	if deps.Sink == nil {
		deps.Sink = NopSink{}
	}
	if deps.Reporter == nil {
		deps.Reporter = DefaultReporter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:     deps,
		actor:    actor,
		ctx:      ctx,
		cancel:   cancel,
		statuses: make(map[models.Step]models.StepStatus, len(models.Steps)),
	}
	c.resetLocked()
	return c
}

// Close cancels the saga's lifetime context, aborting in-flight remote calls.
// No remote compensation is attempted; abandoned holds expire on their own.
func (c *Controller) Close() {
	c.cancel()
}

func (c *Controller) resetLocked() {
	for _, s := range models.Steps {
		c.statuses[s] = models.StepNotStarted
	}
	c.statuses[models.StepServiceSelection] = models.StepActive
	c.current = models.StepServiceSelection
	c.selection = models.BookingSelection{}
}

// CurrentStep returns the step the flow is on.
func (c *Controller) CurrentStep() models.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Busy reports whether a transition has a remote call in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// StepStatuses returns a copy of the per-step progress states.
func (c *Controller) StepStatuses() map[models.Step]models.StepStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.Step]models.StepStatus, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}

// Selection returns a read-only snapshot of the in-progress choices.
func (c *Controller) Selection() models.BookingSelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Snapshot()
}

// StepView is the rendering view of one step.
type StepView struct {
	Step   string            `json:"step"`
	Status models.StepStatus `json:"status"`
}

// StateView is the read-only snapshot handed to rendering code.
type StateView struct {
	CurrentStep string                  `json:"currentStep"`
	Busy        bool                    `json:"busy"`
	Steps       []StepView              `json:"steps"`
	Selection   models.BookingSelection `json:"selection"`
}

// State returns the full snapshot for rendering.
func (c *Controller) State() StateView {
	c.mu.Lock()
	defer c.mu.Unlock()
	steps := make([]StepView, 0, len(models.Steps))
	for _, s := range models.Steps {
		steps = append(steps, StepView{Step: s.String(), Status: c.statuses[s]})
	}
	return StateView{
		CurrentStep: c.current.String(),
		Busy:        c.busy,
		Steps:       steps,
		Selection:   c.selection.Snapshot(),
	}
}

// Advance moves the flow one edge forward. Remote failures leave the step and
// every previously committed field exactly as they were; a second Advance
// while one is in flight is rejected with ErrSagaBusy.
func (c *Controller) Advance() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrSagaBusy
	}
	if c.current == models.StepCompletion {
		c.mu.Unlock()
		return nil
	}
	edge, ok := findForwardEdge(c.current, c.actor, c.selection)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("no forward transition from %s", c.current)
	}
	if edge.Guard != nil {
		if err := edge.Guard(c.selection); err != nil {
			c.mu.Unlock()
			c.report(err)
			return err
		}
	}

	plan := c.deps.Engine.Plan(edge.From, edge.To, c.selection)
	if edge.Effect == nil && len(plan) == 0 {
		c.applyForwardLocked(edge)
		c.mu.Unlock()
		return nil
	}

	c.busy = true
	sel := c.selection.Snapshot()
	c.mu.Unlock()

	c.deps.Sink.Publish(true, transitionHeadline(edge.Name), "")
	err := c.runForward(edge, plan, &sel)

	c.mu.Lock()
	c.busy = false
	// Undo calls that settled before the failure are real: their cleared
	// fields must stick even when the transition itself is aborted.
	c.selection = sel
	if err != nil {
		c.mu.Unlock()
		c.report(err)
		return err
	}
	c.applyForwardLocked(edge)
	c.mu.Unlock()

	c.deps.Sink.Publish(false, "", "")
	return nil
}

func (c *Controller) runForward(edge forwardEdge, plan []UndoOp, sel *models.BookingSelection) error {
	for _, op := range plan {
		if err := op.Run(c.ctx, c.deps.Reservations, sel); err != nil {
			return &CompensationError{Op: op.Name, Err: err}
		}
	}
	if edge.Effect == nil {
		return nil
	}
	apply, err := edge.Effect(c.ctx, c.deps, c.actor, *sel)
	if err != nil {
		return err
	}
	apply(sel)
	return nil
}

func (c *Controller) applyForwardLocked(edge forwardEdge) {
	c.statuses[edge.From] = models.StepDone
	for _, s := range edge.SkipDone {
		c.statuses[s] = models.StepDone
	}
	// Completion is terminal: no step stays active there.
	if edge.To == models.StepCompletion {
		c.statuses[edge.To] = models.StepDone
	} else {
		c.statuses[edge.To] = models.StepActive
	}
	c.current = edge.To
	c.deps.Logger.Debug("booking step advanced",
		zap.String("edge", edge.Name),
		zap.String("step", edge.To.String()))
}

// Retreat moves the flow one edge backward, undoing the side effect owned by
// the step being left first. If an undo call fails the retreat is refused and
// the user stays where they are: a stuck step beats a dangling remote hold.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrSagaBusy
	}
	if c.current == models.StepServiceSelection || c.current == models.StepCompletion {
		c.mu.Unlock()
		return nil
	}
	edge, ok := findBackwardEdge(c.current, c.actor, c.selection)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("no backward transition from %s", c.current)
	}

	plan := c.deps.Engine.Plan(edge.From, edge.To, c.selection)
	if len(plan) == 0 {
		c.applyBackwardLocked(edge)
		c.mu.Unlock()
		return nil
	}

	c.busy = true
	sel := c.selection.Snapshot()
	c.mu.Unlock()

	c.deps.Sink.Publish(true, transitionHeadline(edge.Name), "")
	var failed error
	for _, op := range plan {
		if err := op.Run(c.ctx, c.deps.Reservations, &sel); err != nil {
			failed = &CompensationError{Op: op.Name, Err: err}
			break
		}
	}

	c.mu.Lock()
	c.busy = false
	c.selection = sel
	if failed != nil {
		c.mu.Unlock()
		c.report(failed)
		return failed
	}
	c.applyBackwardLocked(edge)
	c.mu.Unlock()

	c.deps.Sink.Publish(false, "", "")
	return nil
}

func (c *Controller) applyBackwardLocked(edge backwardEdge) {
	c.statuses[edge.From] = models.StepNotStarted
	for _, s := range edge.Reset {
		c.statuses[s] = models.StepNotStarted
	}
	c.statuses[edge.To] = models.StepActive
	c.current = edge.To
	c.deps.Logger.Debug("booking step retreated",
		zap.String("edge", edge.Name),
		zap.String("step", edge.To.String()))
}

// Restart clears the whole attempt and puts step 1 back to active. It is only
// valid after completion, where no dangling hold can exist by construction,
// so no remote compensation is attempted.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrSagaBusy
	}
	if c.current != models.StepCompletion {
		return ErrSagaNotCompleted
	}
	c.resetLocked()
	return nil
}

// SetService records the chosen service. Changing service while a hold is
// active is a compensating event in its own right: the stale hold is
// cancelled before the new selection is accepted, and the change is refused
// if that cancel fails.
func (c *Controller) SetService(svc models.Service) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrSagaBusy
	}
	changed := c.selection.Service == nil || c.selection.Service.ID != svc.ID

	var plan []UndoOp
	if changed {
		plan = c.deps.Engine.PlanServiceChange(c.selection)
	}
	if len(plan) == 0 {
		c.selection.Service = &svc
		if changed {
			// The slot belonged to the previous service.
			c.selection.Slot = nil
		}
		c.mu.Unlock()
		return nil
	}

	c.busy = true
	sel := c.selection.Snapshot()
	c.mu.Unlock()

	c.deps.Sink.Publish(true, "Releasing your previous reservation", "")
	var failed error
	for _, op := range plan {
		if err := op.Run(c.ctx, c.deps.Reservations, &sel); err != nil {
			failed = &CompensationError{Op: op.Name, Err: err}
			break
		}
	}

	c.mu.Lock()
	c.busy = false
	c.selection = sel
	if failed != nil {
		c.mu.Unlock()
		c.report(failed)
		return failed
	}
	c.selection.Service = &svc
	c.selection.Slot = nil
	c.mu.Unlock()

	c.deps.Sink.Publish(false, "", "")
	return nil
}

// SetSlot records the chosen professional/date/time.
func (c *Controller) SetSlot(slot models.Slot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrSagaBusy
	}
	c.selection.Slot = &slot
	return nil
}

// SetIdentity records the guest personal-data draft.
func (c *Controller) SetIdentity(data models.PersonalData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrSagaBusy
	}
	c.selection.PersonalData = &data
	return nil
}

// SetPaymentMethod records the payment-method draft.
func (c *Controller) SetPaymentMethod(draft models.PaymentDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrSagaBusy
	}
	c.selection.Payment = &draft
	return nil
}

func (c *Controller) report(err error) {
	d := c.deps.Reporter.Decide(err)
	c.deps.Sink.Publish(false, d.Headline, d.Detail)
	c.deps.Logger.Warn("booking transition failed", zap.Error(err))
}

func transitionHeadline(edgeName string) string {
	switch edgeName {
	case "reserve-slot":
		return "Reserving your time slot"
	case "confirm-known-patient":
		return "Confirming your appointment"
	case "link-patient":
		return "Saving your details"
	case "settle-payment":
		return "Processing payment"
	case "abandon-hold":
		return "Releasing your reservation"
	case "unwind-payment-known-patient", "unwind-payment-guest":
		return "Undoing your appointment"
	default:
		return "Working"
	}
}
