package dto

import "github.com/shopspring/decimal"

type TicketResponse struct {
	TicketID          string          `json:"ticketId"`
	Status            string          `json:"status"`
	StakePoints       int64           `json:"stake_points"`
	CombinedOdds      decimal.Decimal `json:"combined_odds"`
	PotentialWinnings decimal.Decimal `json:"potential_winnings"`
	CreatedAtUnixMs   int64           `json:"created_at_unix_ms,omitempty"`
	Legs              []LegResponse   `json:"legs"`
}

type LegResponse struct {
	LegID     string          `json:"legId"`
	FixtureID string          `json:"fixtureId"`
	Market    string          `json:"market"`
	Selection string          `json:"selection"`
	Odd       decimal.Decimal `json:"odd"`
	Status    string          `json:"status"`
}

type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
}
