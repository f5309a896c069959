package models

// Status is the lifecycle state of an order. The set is closed: anything
// outside these constants is rejected before it reaches the repository.
type Status string

const (
	StatusWaitingPayment      Status = "waiting_payment"
	StatusWaitingConfirmation Status = "waiting_confirmation"
	StatusConfirmed           Status = "confirmed"
	StatusPendingDelivery     Status = "pending_delivery"
	StatusPackaged            Status = "packaged"
	StatusShipped             Status = "shipped"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

// stageRank orders the fulfillment pipeline. Admins are trusted manual
// operators, so any forward jump is allowed (e.g. waiting_payment straight
// to confirmed), but moving an order backwards is rejected.
var stageRank = map[Status]int{
	StatusWaitingPayment:      0,
	StatusWaitingConfirmation: 1,
	StatusConfirmed:           2,
	StatusPendingDelivery:     3,
	StatusPackaged:            4,
	StatusShipped:             5,
	StatusCompleted:           6,
}

// AllStatuses lists every valid status, in pipeline order with cancelled last.
var AllStatuses = []Status{
	StatusWaitingPayment,
	StatusWaitingConfirmation,
	StatusConfirmed,
	StatusPendingDelivery,
	StatusPackaged,
	StatusShipped,
	StatusCompleted,
	StatusCancelled,
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := stageRank[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to
// another. Terminal states accept nothing. Cancellation is allowed from
// any non-terminal state. Everything else must move forward in the
// pipeline; a backward move is an operational mistake and is rejected.
func CanTransition(from, to Status) bool {
	if !from.IsValid() || !to.IsValid() || from == to {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return stageRank[to] > stageRank[from]
}

// InitialStatus returns the status a freshly created order starts in.
// COD orders skip the payment gate entirely and go straight to
// fulfillment; pre-paid methods wait for the transfer.
func InitialStatus(method PaymentMethod) Status {
	if method == PaymentCOD {
		return StatusPendingDelivery
	}
	return StatusWaitingPayment
}

// buyerTransitions are the only status changes a non-admin may make, and
// only on their own order: submitting payment proof and confirming receipt.
var buyerTransitions = map[Status]Status{
	StatusWaitingPayment: StatusWaitingConfirmation,
	StatusShipped:        StatusCompleted,
}

// BuyerCanTransition reports whether the order owner (as opposed to an
// admin) may request this particular status change.
func BuyerCanTransition(from, to Status) bool {
	return buyerTransitions[from] == to
}

// TrackingStep is one of the five coarse steps shown on the buyer's
// tracking view. Several raw statuses collapse onto a single step.
type TrackingStep struct {
	Label    string   `json:"label"`
	Statuses []Status `json:"-"`
}

// TrackingSteps is the buyer-visible projection of the lifecycle, in
// display order. waiting_confirmation and cancelled map to no step at
// all: the view highlights nothing until an admin confirms the payment.
var TrackingSteps = []TrackingStep{
	{Label: "Menunggu pembayaran", Statuses: []Status{StatusWaitingPayment}},
	{Label: "Diterima", Statuses: []Status{StatusConfirmed, StatusPendingDelivery}},
	{Label: "Dikemas", Statuses: []Status{StatusPackaged}},
	{Label: "Dalam pengiriman", Statuses: []Status{StatusShipped}},
	{Label: "Selesai", Statuses: []Status{StatusCompleted}},
}

// TrackingStepIndex returns the index into TrackingSteps matching the
// given status, or -1 when the status has no buyer-visible step. The
// tracking view highlights every step up to and including the returned
// index.
func TrackingStepIndex(s Status) int {
	for i, step := range TrackingSteps {
		for _, st := range step.Statuses {
			if st == s {
				return i
			}
		}
	}
	return -1
}
