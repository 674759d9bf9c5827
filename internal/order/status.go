package order

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	MethodCOD          PaymentMethod = "COD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// fulfilment order used for the forward-only admin transition rule
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (m PaymentMethod) Valid() bool {
	return m == MethodCOD || m == MethodBankTransfer
}

// AdminCanTransition reports whether an admin may move an order from
// one status to another: forward along the fulfilment sequence, or
// into CANCELLED from any non-terminal status.
func AdminCanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fromRank, ok1 := statusRank[from]
	toRank, ok2 := statusRank[to]
	return ok1 && ok2 && toRank > fromRank
}

// CustomerCanCancel limits customers to cancelling orders that have
// not yet shipped.
func CustomerCanCancel(from Status) bool {
	return from == StatusPending || from == StatusProcessing
}
