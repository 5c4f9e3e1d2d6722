package topics

const (
	// Tickets
	TicketPlaced = "ticket_placed"

	// Fixtures
	FixtureConcluded = "fixture_concluded"

	// Settlement
	LegSettled = "leg_settled"

	// DLQs
	FixtureConcludedDLQ = "fixture_concluded_dlq"
)
