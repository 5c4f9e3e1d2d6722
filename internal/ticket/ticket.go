package ticket

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
)

// Status de uma perna. PENDING é o único estado não terminal:
// uma vez WON, LOST ou VOID a perna nunca muda de novo.
const (
	StatusPending = "PENDING"
	StatusWon     = "WON"
	StatusLost    = "LOST"
	StatusVoid    = "VOID"
)

// Leg é uma perna persistida de um bilhete acumulador.
// Odd é snapshot do momento da criação; liquidação nunca altera.
type Leg struct {
	ID          string
	TicketID    string
	UserID      string
	FixtureID   string
	Market      market.Type
	Selection   string
	StakePoints int64 // stake do bilhete inteiro, repetida em cada perna
	Odd         decimal.Decimal
	Status      string
	CreatedAt   time.Time
}

// LegInput é uma perna ainda não persistida, como chega do cliente.
type LegInput struct {
	FixtureID string
	Market    market.Type
	Selection string
	Odd       decimal.Decimal
}

// CombinedOdds multiplica as odds de todas as pernas do bilhete.
func CombinedOdds(legs []Leg) decimal.Decimal {
	total := decimal.NewFromInt(1)
	for _, l := range legs {
		total = total.Mul(l.Odd)
	}
	return total
}

// PotentialWinnings é stake × produto das odds.
func PotentialWinnings(stakePoints int64, combined decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(stakePoints).Mul(combined)
}

// OverallStatus agrega o status do bilhete a partir das pernas:
// qualquer LOST derruba o bilhete; qualquer PENDING o mantém aberto;
// tudo VOID anula; senão, tudo que restou ganhou.
func OverallStatus(legs []Leg) string {
	anyWon := false
	for _, l := range legs {
		switch l.Status {
		case StatusLost:
			return StatusLost
		case StatusPending:
			return StatusPending
		case StatusWon:
			anyWon = true
		}
	}
	if !anyWon {
		return StatusVoid
	}
	return StatusWon
}
