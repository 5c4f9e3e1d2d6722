package events

// TicketPlaced é emitido pelo ticket-service após criação atômica do bilhete
// (débito da stake + inserção das pernas).
type TicketPlaced struct {
	TicketID    string            `json:"ticket_id"`
	UserID      string            `json:"user_id"`
	StakePoints int64             `json:"stake_points"`
	Legs        []TicketPlacedLeg `json:"legs"`
	TsUnixMs    int64             `json:"ts_unix_ms"`
}

type TicketPlacedLeg struct {
	LegID     string `json:"leg_id"`
	FixtureID string `json:"fixture_id"`
	Market    string `json:"market"`
	Selection string `json:"selection"`
	Odd       string `json:"odd"` // decimal serializado como string
}
