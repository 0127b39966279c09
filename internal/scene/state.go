package scene

// OrderPhase enumerates the fulfillment states a scene moves through.
type OrderPhase int

const (
	// Unordered means no fulfillment order has been placed.
	Unordered OrderPhase = iota
	// Pending means an order exists but imagery has not been delivered.
	Pending
	// Fulfilled means the ordered imagery has a delivery location.
	Fulfilled
)

// OrderState is the tagged fulfillment state of one scene. OrderID is set
// for Pending and Fulfilled; Location only for Fulfilled.
type OrderState struct {
	Phase    OrderPhase
	OrderID  string
	Location string
}

// StateUnordered returns the initial order state.
func StateUnordered() OrderState {
	return OrderState{Phase: Unordered}
}

// StatePending returns the state of a placed but undelivered order.
func StatePending(orderID string) OrderState {
	return OrderState{Phase: Pending, OrderID: orderID}
}

// StateFulfilled returns the state of a delivered order.
func StateFulfilled(orderID, location string) OrderState {
	return OrderState{Phase: Fulfilled, OrderID: orderID, Location: location}
}

func (s OrderState) String() string {
	switch s.Phase {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	default:
		return "unordered"
	}
}
