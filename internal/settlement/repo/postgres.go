package repo

import (
	"context"
	"database/sql"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket"
)

// TxWallet credita o prêmio dentro da transação do pagamento.
type TxWallet interface {
	CreditTx(ctx context.Context, tx *sql.Tx, userID string, amount int64, description string) (newBalance int64, err error)
}

// Postgres implementa a persistência da liquidação
type Postgres struct {
	db     *sql.DB
	wallet TxWallet
}

func NewPostgres(db *sql.DB, wallet TxWallet) *Postgres {
	return &Postgres{db: db, wallet: wallet}
}

// PendingLegsByFixture retorna as pernas ainda PENDING de uma partida
func (p *Postgres) PendingLegsByFixture(ctx context.Context, fixtureID string) ([]ticket.Leg, error) {
	return p.queryLegs(ctx, `
		SELECT id, ticket_id, user_id, fixture_id, market, selection, stake_points, odd, status, created_at
		FROM legs WHERE fixture_id=$1 AND status='PENDING' ORDER BY created_at, id`, fixtureID)
}

// MarkSettled aplica a transição PENDING→status de forma condicional.
// Duas liquidações concorrentes da mesma perna: só uma vê applied=true.
func (p *Postgres) MarkSettled(ctx context.Context, legID string, status string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE legs SET status=$1, updated_at=NOW() WHERE id=$2 AND status='PENDING'`,
		status, legID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TicketLegs retorna todas as pernas de um bilhete
func (p *Postgres) TicketLegs(ctx context.Context, ticketID string) ([]ticket.Leg, error) {
	return p.queryLegs(ctx, `
		SELECT id, ticket_id, user_id, fixture_id, market, selection, stake_points, odd, status, created_at
		FROM legs WHERE ticket_id=$1 ORDER BY created_at, id`, ticketID)
}

// PayoutTicket credita o prêmio no máximo uma vez por bilhete.
// A linha em ticket_payouts é a guarda: o INSERT com ON CONFLICT DO NOTHING
// e o crédito na carteira ficam na mesma transação.
func (p *Postgres) PayoutTicket(ctx context.Context, ticketID, userID string, amountPoints int64) (bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ticket_payouts (ticket_id, user_id, amount_points)
		VALUES ($1,$2,$3) ON CONFLICT (ticket_id) DO NOTHING`,
		ticketID, userID, amountPoints)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// bilhete já pago por outra invocação
		return false, nil
	}

	if _, err := p.wallet.CreditTx(ctx, tx, userID, amountPoints, "payout:"+ticketID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// TicketsAwaitingPayout lista bilhetes totalmente terminais sem perna LOST
// e ainda sem pagamento registrado. Cobre créditos que falharam depois da
// última perna sair de PENDING.
func (p *Postgres) TicketsAwaitingPayout(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT l.ticket_id
		FROM legs l
		LEFT JOIN ticket_payouts tp ON tp.ticket_id = l.ticket_id
		WHERE tp.ticket_id IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM legs x
			WHERE x.ticket_id = l.ticket_id AND x.status IN ('PENDING','LOST')
		  )`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FixturesWithPendingLegs lista as partidas que ainda têm perna PENDING
func (p *Postgres) FixturesWithPendingLegs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT DISTINCT fixture_id FROM legs WHERE status='PENDING'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
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
