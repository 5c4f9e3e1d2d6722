package ticket

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStake = errors.New("stake must be greater than 0")
	ErrEmptyLegs    = errors.New("at least one leg is required")
)

// FixtureNotFoundError indica que uma perna referencia partida inexistente.
type FixtureNotFoundError struct {
	FixtureID string
}

func (e FixtureNotFoundError) Error() string {
	return "fixture not found: " + e.FixtureID
}

// FixtureNotBettableError indica partida com apostas bloqueadas (allow_betting=false).
type FixtureNotBettableError struct {
	FixtureID string
}

func (e FixtureNotBettableError) Error() string {
	return "cannot bet on fixture: " + e.FixtureID
}

// InsufficientBalanceError carrega o necessário vs. disponível para o cliente reagir.
type InsufficientBalanceError struct {
	Required  int64
	Available int64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d PTS but need %d PTS", e.Available, e.Required)
}
