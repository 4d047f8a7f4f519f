package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Ahead reports whether to can be reached from from by one or more
// transitions, i.e. to is a later state of the same order.
func Ahead(from, to Status) bool {
	seen := map[Status]bool{from: true}
	next := []Status{from}
	for len(next) > 0 {
		cur := next[0]
		next = next[1:]
		for s := range validNext[cur] {
			if s == to {
				return true
			}
			if !seen[s] {
				seen[s] = true
				next = append(next, s)
			}
		}
	}
	return false
}

// Cancellable reports whether an order in s may still be cancelled by the customer.
func Cancellable(s Status) bool {
	return CanTransition(s, StatusCancelled)
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}
