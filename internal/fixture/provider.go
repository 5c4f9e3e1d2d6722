package fixture

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("fixture not found")

// Result é o desfecho de uma partida sob a ótica do provedor de resultados.
// Enquanto Concluded for false os demais campos não têm significado.
type Result struct {
	Concluded   bool   `json:"concluded"`
	HomeGoals   int    `json:"home_goals"`
	AwayGoals   int    `json:"away_goals"`
	FirstScorer string `json:"first_scorer,omitempty"` // "HOME" | "AWAY" | ""
}

// Info é a visão administrativa de uma partida: simulador e painéis.
// HomeGoals/AwayGoals são nil enquanto a partida não termina.
type Info struct {
	ID           string    `json:"id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	KickoffAt    time.Time `json:"kickoff_at"`
	Finished     bool      `json:"finished"`
	AllowBetting bool      `json:"allow_betting"`
	HomeGoals    *int      `json:"home_goals,omitempty"`
	AwayGoals    *int      `json:"away_goals,omitempty"`
	FirstScorer  string    `json:"first_scorer,omitempty"`
}

// Provider expõe leitura de resultados e da flag de apostas de uma partida.
// Somente leitura: o núcleo de apostas nunca escreve em fixtures.
type Provider interface {
	Result(ctx context.Context, fixtureID string) (Result, error)
	IsBettable(ctx context.Context, fixtureID string) (bool, error)
}
