package repo

import (
	"context"
	"database/sql"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
)

// Postgres lê partidas da tabela fixtures
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Result retorna o desfecho da partida; partida não finalizada vem com Concluded=false
func (p *Postgres) Result(ctx context.Context, fixtureID string) (fixture.Result, error) {
	var (
		finished    bool
		homeGoals   sql.NullInt64
		awayGoals   sql.NullInt64
		firstScorer sql.NullString
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT finished, home_goals, away_goals, first_scorer
		FROM fixtures WHERE id=$1`, fixtureID).
		Scan(&finished, &homeGoals, &awayGoals, &firstScorer)
	if err == sql.ErrNoRows {
		return fixture.Result{}, fixture.ErrNotFound
	}
	if err != nil {
		return fixture.Result{}, err
	}

	// placar nulo equivale a partida em andamento, mesmo com finished=true
	if !finished || !homeGoals.Valid || !awayGoals.Valid {
		return fixture.Result{}, nil
	}

	return fixture.Result{
		Concluded:   true,
		HomeGoals:   int(homeGoals.Int64),
		AwayGoals:   int(awayGoals.Int64),
		FirstScorer: firstScorer.String,
	}, nil
}

// IsBettable retorna a flag allow_betting da partida
func (p *Postgres) IsBettable(ctx context.Context, fixtureID string) (bool, error) {
	var allowed bool
	err := p.db.QueryRowContext(ctx, `SELECT allow_betting FROM fixtures WHERE id=$1`, fixtureID).Scan(&allowed)
	if err == sql.ErrNoRows {
		return false, fixture.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return allowed, nil
}
