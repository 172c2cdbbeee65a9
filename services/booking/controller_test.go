package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clinicbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReservations tracks remote hold/appointment state so the tests can
// assert invariants against what the scheduling service would see.
type fakeReservations struct {
	mu           sync.Mutex
	holdCalls    int
	cancelCalls  int
	confirmCalls int
	statusCalls  int
	deleteCalls  int
	cancelled    []string
	holds        map[string]models.HoldStatus
	appointments map[string]bool
	seq          int
	apptSeq      int

	holdErr    error
	cancelErr  error
	confirmErr error
	statusErr  error
	deleteErr  error

	holdStarted chan struct{}
	holdRelease chan struct{}
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{
		holds:        make(map[string]models.HoldStatus),
		appointments: make(map[string]bool),
	}
}

func (f *fakeReservations) Hold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	f.mu.Lock()
	f.holdCalls++
	f.seq++
	id := fmt.Sprintf("H%d", f.seq)
	f.mu.Unlock()

	if f.holdStarted != nil {
		f.holdStarted <- struct{}{}
	}
	if f.holdRelease != nil {
		<-f.holdRelease
	}
	if f.holdErr != nil {
		return nil, f.holdErr
	}

	f.mu.Lock()
	f.holds[id] = models.HoldHeld
	f.mu.Unlock()
	return &HoldResult{HoldID: id, ExpiresAt: time.Now().Add(10 * time.Minute)}, nil
}

func (f *fakeReservations) Cancel(ctx context.Context, holdID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, holdID)
	f.holds[holdID] = models.HoldCancelled
	return nil
}

func (f *fakeReservations) Confirm(ctx context.Context, holdID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	f.holds[holdID] = models.HoldConfirmed
	f.apptSeq++
	id := fmt.Sprintf("A%d", f.apptSeq)
	f.appointments[id] = true
	return id, nil
}

func (f *fakeReservations) SetStatus(ctx context.Context, holdID string, status models.HoldStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return f.statusErr
	}
	f.holds[holdID] = status
	return nil
}

func (f *fakeReservations) DeleteAppointment(ctx context.Context, appointmentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.appointments, appointmentID)
	return nil
}

// activeHolds counts holds the scheduling service still considers claimed.
func (f *fakeReservations) activeHolds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, st := range f.holds {
		if st == models.HoldHeld || st == models.HoldConfirmed {
			n++
		}
	}
	return n
}

func (f *fakeReservations) holdStatus(id string) models.HoldStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holds[id]
}

func (f *fakeReservations) appointmentAlive(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appointments[id]
}

type fakeIdentity struct {
	mu          sync.Mutex
	createCalls int
	linkCalls   int
	createErr   error
	linkErr     error
}

func (f *fakeIdentity) CreateAndLink(ctx context.Context, holdID string, data models.PersonalData) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return false, f.createErr
	}
	return true, nil
}

func (f *fakeIdentity) LinkAndCreateAppointment(ctx context.Context, holdID, patientID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "A100", nil
}

type fakePayments struct {
	mu            sync.Mutex
	transferCalls int
	cardCalls     int
	transferErr   error
	cardErrs      []error
	lastApptID    string
}

func (f *fakePayments) CreateInstantTransferCharge(ctx context.Context, appointmentID string, payer models.PayerInfo, dueDate time.Time, description string) (*models.InstantTransferCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls++
	f.lastApptID = appointmentID
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return &models.InstantTransferCharge{
		Code:       "00020126580014br.gov.bcb.pix",
		VisualCode: "data:image/png;base64,xxxx",
		ExpiresAt:  time.Now().Add(30 * time.Minute),
		Amount:     150,
	}, nil
}

func (f *fakePayments) CreateCardCharge(ctx context.Context, appointmentID string, payer models.PayerInfo, card models.CardDetails, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cardCalls++
	f.lastApptID = appointmentID
	if len(f.cardErrs) > 0 {
		err := f.cardErrs[0]
		f.cardErrs = f.cardErrs[1:]
		return err
	}
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (s *recordingSink) Publish(busy bool, headline, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ProgressEvent{Busy: busy, Headline: headline, Detail: detail})
}

type fixture struct {
	reservations *fakeReservations
	identity     *fakeIdentity
	payments     *fakePayments
	sink         *recordingSink
	controller   *Controller
}

func newFixture(actor models.Actor) *fixture {
	f := &fixture{
		reservations: newFakeReservations(),
		identity:     &fakeIdentity{},
		payments:     &fakePayments{},
		sink:         &recordingSink{},
	}
	f.controller = NewController(actor, Deps{
		Reservations: f.reservations,
		Identity:     f.identity,
		Payments:     f.payments,
		Sink:         f.sink,
	})
	return f
}

var (
	testService = models.Service{ID: "S1", Name: "Cardiology consult", DurationMin: 15, Price: 150}
	testSlot    = models.Slot{ProfessionalID: "P1", Date: "2025-05-08", Time: "19:00", DurationMin: 15}
)

// advanceToOverview walks service selection, service info and slot selection,
// acquiring the hold on the way out of slot selection.
func (f *fixture) advanceToOverview(t *testing.T) {
	t.Helper()
	require.NoError(t, f.controller.SetService(testService))
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetSlot(testSlot))
	require.NoError(t, f.controller.Advance())
	require.Equal(t, models.StepOverview, f.controller.CurrentStep())
	require.NotEmpty(t, f.controller.Selection().HoldID)
}

func TestAdvanceGuardsServiceSelection(t *testing.T) {
	f := newFixture(models.Actor{})

	err := f.controller.Advance()
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "service", pre.Field)
	assert.Equal(t, models.StepServiceSelection, f.controller.CurrentStep())
}

func TestAdvanceRequiresSlotBeforeHold(t *testing.T) {
	f := newFixture(models.Actor{})
	require.NoError(t, f.controller.SetService(testService))
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())

	err := f.controller.Advance()
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "slot", pre.Field)
	assert.Equal(t, 0, f.reservations.holdCalls)
	assert.Equal(t, models.StepSlotSelection, f.controller.CurrentStep())
}

func TestHoldFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(models.Actor{})
	require.NoError(t, f.controller.SetService(testService))
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetSlot(testSlot))

	f.reservations.holdErr = errors.New("slot taken")
	err := f.controller.Advance()

	var saga *SagaError
	require.ErrorAs(t, err, &saga)
	assert.Equal(t, "hold", saga.Stage)
	assert.Equal(t, models.StepSlotSelection, f.controller.CurrentStep())
	assert.Empty(t, f.controller.Selection().HoldID)
	assert.False(t, f.controller.Busy())
}

func TestRetreatFromOverviewCancelsHold(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)
	holdID := f.controller.Selection().HoldID

	require.NoError(t, f.controller.Retreat())

	assert.Equal(t, models.StepSlotSelection, f.controller.CurrentStep())
	assert.Empty(t, f.controller.Selection().HoldID)
	assert.Equal(t, models.HoldCancelled, f.reservations.holdStatus(holdID))
	assert.Equal(t, 1, f.reservations.cancelCalls)
}

func TestRetreatRefusedWhenCancelFails(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)
	holdID := f.controller.Selection().HoldID

	f.reservations.cancelErr = errors.New("scheduling unreachable")
	err := f.controller.Retreat()

	var comp *CompensationError
	require.ErrorAs(t, err, &comp)
	// Refused: the user stays on overview and the hold is still ours.
	assert.Equal(t, models.StepOverview, f.controller.CurrentStep())
	assert.Equal(t, holdID, f.controller.Selection().HoldID)
}

func TestSkipRuleSymmetryForAuthenticatedPatient(t *testing.T) {
	f := newFixture(models.Actor{PatientID: "PAT1"})
	f.advanceToOverview(t)

	// Forward skip: overview confirms straight into payment.
	require.NoError(t, f.controller.Advance())
	assert.Equal(t, models.StepPayment, f.controller.CurrentStep())
	assert.Equal(t, 1, f.reservations.confirmCalls)
	statuses := f.controller.StepStatuses()
	assert.Equal(t, models.StepDone, statuses[models.StepIdentityCollection])
	appointmentID := f.controller.Selection().AppointmentID
	require.NotEmpty(t, appointmentID)

	// Backward mirror: payment retreats straight to slot selection.
	holdID := f.controller.Selection().HoldID
	require.NoError(t, f.controller.Retreat())

	assert.Equal(t, models.StepSlotSelection, f.controller.CurrentStep())
	statuses = f.controller.StepStatuses()
	assert.Equal(t, models.StepNotStarted, statuses[models.StepOverview])
	assert.Equal(t, models.StepNotStarted, statuses[models.StepIdentityCollection])
	assert.Equal(t, models.StepActive, statuses[models.StepSlotSelection])

	// The appointment is gone, the hold is back to held and still ours.
	assert.Equal(t, 1, f.reservations.deleteCalls)
	assert.Equal(t, 1, f.reservations.statusCalls)
	assert.Empty(t, f.controller.Selection().AppointmentID)
	assert.Equal(t, holdID, f.controller.Selection().HoldID)
	assert.Equal(t, models.HoldHeld, f.reservations.holdStatus(holdID))
}

func TestGuestRetreatFromPaymentReturnsToIdentity(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetIdentity(models.PersonalData{Name: "Ana", Email: "ana@example.com", Phone: "+5511999990000"}))
	require.NoError(t, f.controller.Advance())
	require.Equal(t, models.StepPayment, f.controller.CurrentStep())

	require.NoError(t, f.controller.Retreat())

	assert.Equal(t, models.StepIdentityCollection, f.controller.CurrentStep())
	assert.Empty(t, f.controller.Selection().AppointmentID)
	assert.NotEmpty(t, f.controller.Selection().HoldID)
	assert.Equal(t, 1, f.reservations.deleteCalls)
}

func TestSingleFlightRejectsConcurrentAdvance(t *testing.T) {
	f := newFixture(models.Actor{})
	require.NoError(t, f.controller.SetService(testService))
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetSlot(testSlot))

	f.reservations.holdStarted = make(chan struct{})
	f.reservations.holdRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.controller.Advance() }()

	// Wait until the first advance is inside the remote call.
	<-f.reservations.holdStarted
	require.True(t, f.controller.Busy())

	err := f.controller.Advance()
	assert.ErrorIs(t, err, ErrSagaBusy)

	// Retreat and the setters are rejected in the same window: the snapshot
	// the in-flight call was planned against must stay stable.
	assert.ErrorIs(t, f.controller.Retreat(), ErrSagaBusy)
	assert.ErrorIs(t, f.controller.SetSlot(models.Slot{ProfessionalID: "P2"}), ErrSagaBusy)
	assert.ErrorIs(t, f.controller.SetService(models.Service{ID: "S2"}), ErrSagaBusy)
	assert.ErrorIs(t, f.controller.SetIdentity(models.PersonalData{Name: "Ana"}), ErrSagaBusy)
	assert.ErrorIs(t, f.controller.SetPaymentMethod(models.PaymentDraft{Method: models.PaymentCard}), ErrSagaBusy)

	close(f.reservations.holdRelease)
	require.NoError(t, <-done)

	// The rejected calls never reached the client or touched the selection.
	assert.Equal(t, 1, f.reservations.holdCalls)
	assert.Equal(t, 0, f.reservations.cancelCalls)
	assert.Equal(t, models.StepOverview, f.controller.CurrentStep())
	assert.Equal(t, "S1", f.controller.Selection().Service.ID)
	assert.Equal(t, "P1", f.controller.Selection().Slot.ProfessionalID)
}

func TestInstantTransferHappyPath(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)

	// Guest: overview leads to identity collection, no remote call.
	require.NoError(t, f.controller.Advance())
	assert.Equal(t, models.StepIdentityCollection, f.controller.CurrentStep())
	assert.Equal(t, 0, f.reservations.confirmCalls)

	require.NoError(t, f.controller.SetIdentity(models.PersonalData{Name: "Ana", Email: "ana@example.com", Phone: "+5511999990000"}))
	require.NoError(t, f.controller.Advance())
	assert.Equal(t, 1, f.identity.createCalls)
	assert.Equal(t, 1, f.reservations.confirmCalls)
	appointmentID := f.controller.Selection().AppointmentID
	require.NotEmpty(t, appointmentID)

	require.NoError(t, f.controller.SetPaymentMethod(models.PaymentDraft{
		Method: models.PaymentInstantTransfer,
		Payer:  models.PayerInfo{Name: "Ana", DocumentNumber: "111.222.333-44"},
	}))
	require.NoError(t, f.controller.Advance())

	assert.Equal(t, models.StepCompletion, f.controller.CurrentStep())
	assert.Equal(t, appointmentID, f.payments.lastApptID)
	sel := f.controller.Selection()
	assert.Equal(t, appointmentID, sel.AppointmentID)
	require.NotNil(t, sel.Charge)
	assert.NotEmpty(t, sel.Charge.Code)
	assert.NotEmpty(t, sel.Charge.VisualCode)

	// Settling is purely additive: the appointment and its confirmed hold
	// survive the final advance untouched.
	assert.Equal(t, 0, f.reservations.deleteCalls)
	assert.Equal(t, 0, f.reservations.statusCalls)
	assert.Equal(t, models.HoldConfirmed, f.reservations.holdStatus(sel.HoldID))

	// Terminal: no step is active and further advances are no-ops.
	for step, status := range f.controller.StepStatuses() {
		assert.NotEqual(t, models.StepActive, status, "step %s still active", step)
	}
	require.NoError(t, f.controller.Advance())
	assert.Equal(t, models.StepCompletion, f.controller.CurrentStep())
}

func TestExistingPatientLinksWithoutConfirm(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetIdentity(models.PersonalData{ExistingPatientID: "PAT9"}))

	require.NoError(t, f.controller.Advance())

	assert.Equal(t, models.StepPayment, f.controller.CurrentStep())
	assert.Equal(t, 1, f.identity.linkCalls)
	assert.Equal(t, 0, f.identity.createCalls)
	assert.Equal(t, 0, f.reservations.confirmCalls)
	assert.Equal(t, "A100", f.controller.Selection().AppointmentID)
}

func TestCardFailureThenRetry(t *testing.T) {
	f := newFixture(models.Actor{PatientID: "PAT1"})
	f.advanceToOverview(t)
	require.NoError(t, f.controller.Advance())
	appointmentID := f.controller.Selection().AppointmentID

	f.payments.cardErrs = []error{errors.New("card declined")}
	require.NoError(t, f.controller.SetPaymentMethod(models.PaymentDraft{
		Method: models.PaymentCard,
		Payer:  models.PayerInfo{Name: "Ana", DocumentNumber: "111.222.333-44"},
		Card:   &models.CardDetails{Number: "4000000000000002", HolderName: "ANA S", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	}))

	err := f.controller.Advance()
	var saga *SagaError
	require.ErrorAs(t, err, &saga)
	assert.Equal(t, "charge", saga.Stage)
	assert.Equal(t, models.StepPayment, f.controller.CurrentStep())
	assert.Equal(t, appointmentID, f.controller.Selection().AppointmentID)

	// Corrected card settles on the second attempt.
	require.NoError(t, f.controller.SetPaymentMethod(models.PaymentDraft{
		Method: models.PaymentCard,
		Payer:  models.PayerInfo{Name: "Ana", DocumentNumber: "111.222.333-44"},
		Card:   &models.CardDetails{Number: "4242424242424242", HolderName: "ANA S", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	}))
	require.NoError(t, f.controller.Advance())
	assert.Equal(t, models.StepCompletion, f.controller.CurrentStep())
	assert.Equal(t, 2, f.payments.cardCalls)
}

func TestMissingPaymentMethodFailsLocally(t *testing.T) {
	f := newFixture(models.Actor{PatientID: "PAT1"})
	f.advanceToOverview(t)
	require.NoError(t, f.controller.Advance())

	err := f.controller.Advance()
	var method *UnsupportedMethodError
	require.ErrorAs(t, err, &method)
	assert.Equal(t, models.StepPayment, f.controller.CurrentStep())
	assert.Equal(t, 0, f.payments.transferCalls)
	assert.Equal(t, 0, f.payments.cardCalls)
}

func TestServiceChangeCancelsStaleHoldExactlyOnce(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)
	holdID := f.controller.Selection().HoldID

	other := models.Service{ID: "S2", Name: "Dermatology consult", DurationMin: 30, Price: 200}
	require.NoError(t, f.controller.SetService(other))

	assert.Equal(t, 1, f.reservations.cancelCalls)
	assert.Equal(t, models.HoldCancelled, f.reservations.holdStatus(holdID))
	sel := f.controller.Selection()
	assert.Empty(t, sel.HoldID)
	assert.Nil(t, sel.Slot)
	require.NotNil(t, sel.Service)
	assert.Equal(t, "S2", sel.Service.ID)

	// Re-selecting the same service is not a change and cancels nothing.
	require.NoError(t, f.controller.SetService(other))
	assert.Equal(t, 1, f.reservations.cancelCalls)
}

func TestServiceChangeAtPaymentReleasesAppointment(t *testing.T) {
	f := newFixture(models.Actor{PatientID: "PAT1"})
	f.advanceToOverview(t)
	require.NoError(t, f.controller.Advance())
	require.Equal(t, models.StepPayment, f.controller.CurrentStep())
	holdID := f.controller.Selection().HoldID
	appointmentID := f.controller.Selection().AppointmentID

	other := models.Service{ID: "S2", Name: "Dermatology consult", DurationMin: 30, Price: 200}
	require.NoError(t, f.controller.SetService(other))

	// The appointment goes with its hold: nothing live may reference a
	// cancelled hold remotely.
	assert.False(t, f.reservations.appointmentAlive(appointmentID))
	assert.Equal(t, models.HoldCancelled, f.reservations.holdStatus(holdID))
	assert.Equal(t, 1, f.reservations.deleteCalls)
	assert.Equal(t, 1, f.reservations.cancelCalls)
	assert.Equal(t, 0, f.reservations.activeHolds())

	sel := f.controller.Selection()
	assert.Empty(t, sel.AppointmentID)
	assert.Empty(t, sel.HoldID)
	assert.Nil(t, sel.Slot)
	require.NotNil(t, sel.Service)
	assert.Equal(t, "S2", sel.Service.ID)
}

func TestServiceChangeRefusedWhenCancelFails(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)
	holdID := f.controller.Selection().HoldID

	f.reservations.cancelErr = errors.New("scheduling unreachable")
	err := f.controller.SetService(models.Service{ID: "S2", Name: "Dermatology consult"})

	var comp *CompensationError
	require.ErrorAs(t, err, &comp)
	sel := f.controller.Selection()
	assert.Equal(t, holdID, sel.HoldID)
	assert.Equal(t, "S1", sel.Service.ID)
}

func TestAtMostOneHoldInvariant(t *testing.T) {
	f := newFixture(models.Actor{PatientID: "PAT1"})

	check := func(label string) {
		assert.LessOrEqual(t, f.reservations.activeHolds(), 1, "after %s", label)
	}

	require.NoError(t, f.controller.SetService(testService))
	check("set service")
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetSlot(testSlot))
	require.NoError(t, f.controller.Advance())
	check("hold acquired")

	// Payment and back again: the hold survives, the appointment does not.
	require.NoError(t, f.controller.Advance())
	check("confirmed")
	require.NoError(t, f.controller.Retreat())
	check("payment unwound")

	// Advancing out of slot selection again cancels the surviving hold
	// before acquiring the replacement.
	require.NoError(t, f.controller.SetSlot(models.Slot{ProfessionalID: "P2", Date: "2025-05-09", Time: "10:00", DurationMin: 15}))
	require.NoError(t, f.controller.Advance())
	check("rebooked")
	assert.Equal(t, 2, f.reservations.holdCalls)
	assert.Equal(t, 1, f.reservations.cancelCalls)

	// Backing all the way out releases everything.
	require.NoError(t, f.controller.Retreat())
	check("hold abandoned")
	require.NoError(t, f.controller.Retreat())
	require.NoError(t, f.controller.Retreat())
	check("back at service selection")
	assert.Equal(t, 0, f.reservations.activeHolds())
}

func TestRestartOnlyAfterCompletion(t *testing.T) {
	f := newFixture(models.Actor{PatientID: "PAT1"})
	f.advanceToOverview(t)

	assert.ErrorIs(t, f.controller.Restart(), ErrSagaNotCompleted)

	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetPaymentMethod(models.PaymentDraft{
		Method: models.PaymentInstantTransfer,
		Payer:  models.PayerInfo{Name: "Ana", DocumentNumber: "111.222.333-44"},
	}))
	require.NoError(t, f.controller.Advance())
	require.Equal(t, models.StepCompletion, f.controller.CurrentStep())

	require.NoError(t, f.controller.Restart())

	sel := f.controller.Selection()
	assert.Equal(t, models.BookingSelection{}, sel)
	assert.Equal(t, models.StepServiceSelection, f.controller.CurrentStep())
	statuses := f.controller.StepStatuses()
	assert.Equal(t, models.StepActive, statuses[models.StepServiceSelection])
	for _, step := range models.Steps[1:] {
		assert.Equal(t, models.StepNotStarted, statuses[step], "step %s", step)
	}
}

func TestProgressSinkSeesBusyWindow(t *testing.T) {
	f := newFixture(models.Actor{})
	f.advanceToOverview(t)

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	require.NotEmpty(t, f.sink.events)
	assert.True(t, f.sink.events[0].Busy)
	assert.False(t, f.sink.events[len(f.sink.events)-1].Busy)
}

func TestFailureReportsDecisionThroughSink(t *testing.T) {
	f := newFixture(models.Actor{})
	require.NoError(t, f.controller.SetService(testService))
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetSlot(testSlot))

	f.reservations.holdErr = errors.New("slot taken")
	require.Error(t, f.controller.Advance())

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	last := f.sink.events[len(f.sink.events)-1]
	assert.False(t, last.Busy)
	assert.Equal(t, "Time slot unavailable", last.Headline)
}

func TestCloseCancelsInFlightCall(t *testing.T) {
	f := newFixture(models.Actor{})
	require.NoError(t, f.controller.SetService(testService))
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.Advance())
	require.NoError(t, f.controller.SetSlot(testSlot))

	blockingRes := newFakeReservations()
	blockingRes.holdStarted = make(chan struct{})
	blockingRes.holdRelease = make(chan struct{})
	f.controller.deps.Reservations = blockingRes

	done := make(chan error, 1)
	go func() { done <- f.controller.Advance() }()
	<-blockingRes.holdStarted

	f.controller.Close()
	select {
	case <-f.controller.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("saga context not cancelled")
	}
	close(blockingRes.holdRelease)
	<-done
}
