package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implementa operações de carteira de pontos em banco
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de carteira
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a carteira se não existir
// Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_points FROM wallets WHERE user_id=$1`, userID).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_points, version) VALUES($1,$2,0,1)`,
			id, userID); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}

	return id, bal, nil
}

// Balance retorna o saldo atual do usuário; carteira inexistente conta como saldo zero
func (p *Postgres) Balance(ctx context.Context, userID string) (int64, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx, `SELECT balance_points FROM wallets WHERE user_id=$1`, userID).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bal, nil
}

// Deposit incrementa o saldo da carteira e registra a operação no ledger
// Garante lock pessimista na linha da carteira
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, ErrNotFound
		}
		return "", 0, err
	}

	if newBalance, err = creditLocked(ctx, tx, id, amount, "deposit:"+externalRef); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// DebitTx debita a stake dentro de uma transação já aberta pelo chamador.
// A linha da carteira fica travada (FOR UPDATE) até o commit, então a checagem
// de saldo e o débito são atômicos em relação a débitos concorrentes.
// Nunca deixa o saldo negativo: retorna ErrInsufficientFunds com o saldo atual.
func (p *Postgres) DebitTx(ctx context.Context, tx *sql.Tx, userID string, amount int64, description string) (available int64, err error) {
	var walletID string
	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_points FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}

	if balance < amount {
		return balance, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_points = balance_points - $1, version = version + 1 WHERE id=$2`,
		amount, walletID); err != nil {
		return balance, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger(wallet_id, operation_type, amount_points, description) VALUES($1,'DEBIT',$2,$3)`,
		walletID, amount, description); err != nil {
		return balance, err
	}

	return balance - amount, nil
}

// CreditTx credita pontos dentro de uma transação já aberta pelo chamador
func (p *Postgres) CreditTx(ctx context.Context, tx *sql.Tx, userID string, amount int64, description string) (newBalance int64, err error) {
	var walletID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return creditLocked(ctx, tx, walletID, amount, description)
}

// creditLocked aplica um crédito assumindo que a linha da carteira já está travada
func creditLocked(ctx context.Context, tx *sql.Tx, walletID string, amount int64, description string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_points = balance_points + $1, version = version + 1 WHERE id=$2`,
		amount, walletID); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger(wallet_id, operation_type, amount_points, description) VALUES($1,'CREDIT',$2,$3)`,
		walletID, amount, description); err != nil {
		return 0, err
	}

	var newBalance int64
	if err := tx.QueryRowContext(ctx, `SELECT balance_points FROM wallets WHERE id=$1`, walletID).Scan(&newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}
