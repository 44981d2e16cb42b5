package engine

// DraftOrder lays out who acts on each of n picks: the first actor takes
// one, then the pair swaps and the new first actor takes two, until one
// general is left, which goes to the seat that did not just pick.
//
// For n = 10: warm, cool, cool, warm, warm, cool, cool, warm, warm, cool.
func DraftOrder(n int) []Seat {
	if n <= 0 {
		return nil
	}

	order := make([]Seat, 0, n)
	first, next := SeatWarm, SeatCool
	order = append(order, first)
	remaining := n - 1

	for remaining > 1 {
		first, next = next, first
		order = append(order, first, first)
		remaining -= 2
	}
	if remaining == 1 {
		order = append(order, next)
	}
	return order
}

// ArrangeOrder is the order in which seats are asked to arrange once the
// pool is empty: whoever made the last double pick, then the other seat.
func ArrangeOrder(n int) [2]Seat {
	order := DraftOrder(n)
	if len(order) == 0 {
		return Seats
	}
	last := order[len(order)-1]
	return [2]Seat{last.Other(), last}
}
