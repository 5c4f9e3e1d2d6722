package events

import "time"

// Evento emitido pelo settlement-worker para cada transição de status aplicada.
type LegSettled struct {
	LegID     string    `json:"leg_id"`
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	FixtureID string    `json:"fixture_id"`
	Market    string    `json:"market"`
	Selection string    `json:"selection"`
	Status    string    `json:"status"` // "WON" | "LOST" | "VOID"
	Ts        time.Time `json:"ts"`
}
