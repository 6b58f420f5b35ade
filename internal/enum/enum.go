package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

const (
	OrderStatusNew       = "new"
	OrderStatusAccepted  = "accepted"
	OrderStatusCancelled = "cancelled"
)

const (
	KitchenStatusNew       = "new"
	KitchenStatusPreparing = "preparing"
	KitchenStatusReady     = "ready"
	KitchenStatusDelivered = "delivered"
)

const (
	PaymentStatusPending     = "pending"
	PaymentStatusPaid        = "paid"
	PaymentStatusFailed      = "failed"
	PaymentStatusNotRequired = "not_required"
)

const (
	ServiceRequestOpen    = "open"
	ServiceRequestHandled = "handled"
)

const (
	AttemptStatusPending = "pending"
	AttemptStatusPaid    = "paid"
	AttemptStatusFailed  = "failed"
)

const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusArrived   = "arrived"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusNoShow    = "no_show"
)

const (
	DepositStatusNone    = "none"
	DepositStatusPending = "pending"
	DepositStatusPaid    = "paid"
	DepositStatusFailed  = "failed"
)

// ── Group B: Borderline (CHECK constrained in DB) ──

const (
	OrderSourceQR          = "qr"
	OrderSourceWalkIn      = "walk_in"
	OrderSourceReservation = "reservation"
)

const (
	PaymentMethodCard  = "card"
	PaymentMethodVenue = "venue"
)

const (
	ServiceRequestWaiter     = "waiter"
	ServiceRequestBill       = "bill"
	ServiceRequestOrderReady = "order_ready"
)

const (
	UserRoleOwner   = "owner"
	UserRoleManager = "manager"
	UserRoleWaiter  = "waiter"
	UserRoleKitchen = "kitchen"
)

// ── Group C: Derived, never stored authoritatively ──

const (
	TableStatusEmpty       = "empty"
	TableStatusOccupied    = "occupied"
	TableStatusOrderActive = "order_active"
	TableStatusOrderReady  = "order_ready"
	TableStatusWaiterCall  = "waiter_call"
	TableStatusBillRequest = "bill_request"
)
