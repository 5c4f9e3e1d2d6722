package repo

import (
	"context"
	"database/sql"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
)

// Operações administrativas sobre fixtures, usadas pelo simulador.
// O núcleo de apostas só enxerga o Provider somente-leitura.

// Seed insere a partida se ainda não existir; partidas já conhecidas ficam como estão
func (p *Postgres) Seed(ctx context.Context, f fixture.Info) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fixtures(id, home_team, away_team, kickoff_at, finished, allow_betting)
		VALUES($1,$2,$3,$4,false,$5)
		ON CONFLICT (id) DO NOTHING`,
		f.ID, f.HomeTeam, f.AwayTeam, f.KickoffAt, f.AllowBetting)
	return err
}

// Conclude registra o placar final, marca finished e fecha apostas.
// Partida já finalizada não muda (applied=false).
func (p *Postgres) Conclude(ctx context.Context, fixtureID string, homeGoals, awayGoals int, firstScorer string) (applied bool, err error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE fixtures
		SET finished=true, allow_betting=false, home_goals=$2, away_goals=$3, first_scorer=NULLIF($4,'')
		WHERE id=$1 AND finished=false`,
		fixtureID, homeGoals, awayGoals, firstScorer)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetBettable liga/desliga a flag allow_betting de uma partida não finalizada
func (p *Postgres) SetBettable(ctx context.Context, fixtureID string, allowed bool) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE fixtures SET allow_betting=$2 WHERE id=$1 AND finished=false`, fixtureID, allowed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fixture.ErrNotFound
	}
	return nil
}

// List retorna o catálogo completo, mais recentes primeiro
func (p *Postgres) List(ctx context.Context) ([]fixture.Info, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, home_team, away_team, kickoff_at, finished, allow_betting, home_goals, away_goals, first_scorer
		FROM fixtures ORDER BY kickoff_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fixture.Info
	for rows.Next() {
		var (
			f           fixture.Info
			homeGoals   sql.NullInt64
			awayGoals   sql.NullInt64
			firstScorer sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.HomeTeam, &f.AwayTeam, &f.KickoffAt,
			&f.Finished, &f.AllowBetting, &homeGoals, &awayGoals, &firstScorer); err != nil {
			return nil, err
		}
		if homeGoals.Valid {
			v := int(homeGoals.Int64)
			f.HomeGoals = &v
		}
		if awayGoals.Valid {
			v := int(awayGoals.Int64)
			f.AwayGoals = &v
		}
		f.FirstScorer = firstScorer.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// Get retorna uma partida pelo id
func (p *Postgres) Get(ctx context.Context, fixtureID string) (fixture.Info, error) {
	var (
		f           fixture.Info
		homeGoals   sql.NullInt64
		awayGoals   sql.NullInt64
		firstScorer sql.NullString
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, home_team, away_team, kickoff_at, finished, allow_betting, home_goals, away_goals, first_scorer
		FROM fixtures WHERE id=$1`, fixtureID).
		Scan(&f.ID, &f.HomeTeam, &f.AwayTeam, &f.KickoffAt,
			&f.Finished, &f.AllowBetting, &homeGoals, &awayGoals, &firstScorer)
	if err == sql.ErrNoRows {
		return fixture.Info{}, fixture.ErrNotFound
	}
	if err != nil {
		return fixture.Info{}, err
	}
	if homeGoals.Valid {
		v := int(homeGoals.Int64)
		f.HomeGoals = &v
	}
	if awayGoals.Valid {
		v := int(awayGoals.Int64)
		f.AwayGoals = &v
	}
	f.FirstScorer = firstScorer.String
	return f, nil
}
