package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket"
	walletrepo "github.com/MichaelRouhana/fyp-bet-platform/internal/wallet/repo"
)

// TxWallet debita a stake dentro da transação do bilhete.
type TxWallet interface {
	DebitTx(ctx context.Context, tx *sql.Tx, userID string, amount int64, description string) (available int64, err error)
}

// Postgres implementa persistência de bilhetes e pernas em banco Postgres
type Postgres struct {
	db     *sql.DB
	wallet TxWallet
}

// NewPostgres retorna uma instância do repositório de bilhetes
func NewPostgres(db *sql.DB, wallet TxWallet) *Postgres {
	return &Postgres{db: db, wallet: wallet}
}

// CreateTicket debita a stake e insere todas as pernas com status PENDING
// na mesma transação: ou o bilhete inteiro entra, ou nada entra.
func (p *Postgres) CreateTicket(ctx context.Context, userID string, stakePoints int64, legs []ticket.LegInput) (string, []ticket.Leg, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()

	ticketID := uuid.NewString()

	available, err := p.wallet.DebitTx(ctx, tx, userID, stakePoints, "stake:"+ticketID)
	if errors.Is(err, walletrepo.ErrInsufficientFunds) {
		return "", nil, ticket.InsufficientBalanceError{Required: stakePoints, Available: available}
	}
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	created := make([]ticket.Leg, 0, len(legs))
	for _, in := range legs {
		leg := ticket.Leg{
			ID:          uuid.NewString(),
			TicketID:    ticketID,
			UserID:      userID,
			FixtureID:   in.FixtureID,
			Market:      in.Market,
			Selection:   in.Selection,
			StakePoints: stakePoints,
			Odd:         in.Odd,
			Status:      ticket.StatusPending,
			CreatedAt:   now,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO legs (id, ticket_id, user_id, fixture_id, market, selection, stake_points, odd, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'PENDING',$9,$9)`,
			leg.ID, leg.TicketID, leg.UserID, leg.FixtureID, string(leg.Market), leg.Selection,
			leg.StakePoints, leg.Odd, now,
		); err != nil {
			return "", nil, err
		}
		created = append(created, leg)
	}

	if err := tx.Commit(); err != nil {
		return "", nil, err
	}
	return ticketID, created, nil
}

// LegsByTicket retorna todas as pernas de um bilhete
func (p *Postgres) LegsByTicket(ctx context.Context, ticketID string) ([]ticket.Leg, error) {
	return p.queryLegs(ctx, `
		SELECT id, ticket_id, user_id, fixture_id, market, selection, stake_points, odd, status, created_at
		FROM legs WHERE ticket_id=$1 ORDER BY created_at, id`, ticketID)
}

// LegsByUser retorna todas as pernas do usuário, mais recentes primeiro
func (p *Postgres) LegsByUser(ctx context.Context, userID string) ([]ticket.Leg, error) {
	return p.queryLegs(ctx, `
		SELECT id, ticket_id, user_id, fixture_id, market, selection, stake_points, odd, status, created_at
		FROM legs WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
}

func (p *Postgres) queryLegs(ctx context.Context, query string, arg any) ([]ticket.Leg, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []ticket.Leg
	for rows.Next() {
		var l ticket.Leg
		var marketType string
		if err := rows.Scan(&l.ID, &l.TicketID, &l.UserID, &l.FixtureID, &marketType,
			&l.Selection, &l.StakePoints, &l.Odd, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Market = market.Type(marketType)
		legs = append(legs, l)
	}
	return legs, rows.Err()
}
