package order

// Status is the lifecycle label of an order.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusPartiallyFulfilled Status = "PARTIALLY_FULFILLED"
	StatusReadyToBeDelivered Status = "READY_TO_BE_DELIVERED"
	StatusFulfilled          Status = "FULFILLED"
	StatusCanceled           Status = "CANCELED"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no operation can move the order out of s.
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusCanceled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPartiallyFulfilled, StatusReadyToBeDelivered, StatusFulfilled, StatusCanceled:
		return true
	}
	return false
}

// FulfillResult tells the caller what a fulfillment attempt achieved.
// Only FulfillReady and FulfillPartial count as success.
type FulfillResult int

const (
	FulfillReady FulfillResult = iota
	FulfillPartial
	FulfillNoProgress
	FulfillClosed
	FulfillNotFound
)

func (r FulfillResult) Succeeded() bool {
	return r == FulfillReady || r == FulfillPartial
}

func (r FulfillResult) String() string {
	switch r {
	case FulfillReady:
		return "ready"
	case FulfillPartial:
		return "partial"
	case FulfillNoProgress:
		return "no_progress"
	case FulfillClosed:
		return "closed"
	case FulfillNotFound:
		return "not_found"
	}
	return "unknown"
}
