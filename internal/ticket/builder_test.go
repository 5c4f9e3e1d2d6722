package ticket

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
)

type fakeWallet struct {
	balance int64
}

func (f *fakeWallet) Balance(_ context.Context, _ string) (int64, error) {
	return f.balance, nil
}

type fakeFixtures struct {
	bettable map[string]bool // ausente = não existe
}

func (f *fakeFixtures) IsBettable(_ context.Context, id string) (bool, error) {
	ok, exists := f.bettable[id]
	if !exists {
		return false, fixture.ErrNotFound
	}
	return ok, nil
}

type fakeStore struct {
	calls     int
	lastStake int64
	err       error
}

func (f *fakeStore) CreateTicket(_ context.Context, userID string, stakePoints int64, legs []LegInput) (string, []Leg, error) {
	f.calls++
	f.lastStake = stakePoints
	if f.err != nil {
		return "", nil, f.err
	}
	created := make([]Leg, 0, len(legs))
	for i, in := range legs {
		created = append(created, Leg{
			ID:          "leg-" + string(rune('a'+i)),
			TicketID:    "ticket-1",
			UserID:      userID,
			FixtureID:   in.FixtureID,
			Market:      in.Market,
			Selection:   in.Selection,
			StakePoints: stakePoints,
			Odd:         in.Odd,
			Status:      StatusPending,
		})
	}
	return "ticket-1", created, nil
}

func (f *fakeStore) LegsByTicket(_ context.Context, _ string) ([]Leg, error) { return nil, nil }
func (f *fakeStore) LegsByUser(_ context.Context, _ string) ([]Leg, error)  { return nil, nil }

func newTestBuilder(balance int64, bettable map[string]bool) (*Builder, *fakeStore) {
	store := &fakeStore{}
	b := NewBuilder(zap.NewNop(), &fakeWallet{balance: balance}, &fakeFixtures{bettable: bettable}, store)
	return b, store
}

func legInput(fixtureID, odd string) LegInput {
	return LegInput{
		FixtureID: fixtureID,
		Market:    market.MatchWinner,
		Selection: "HOME",
		Odd:       decimal.RequireFromString(odd),
	}
}

func TestCreateTicketInvalidStake(t *testing.T) {
	b, store := newTestBuilder(1000, map[string]bool{"fx-1": true})

	_, err := b.CreateTicket(context.Background(), "user-1", 0, []LegInput{legInput("fx-1", "1.5")})
	assert.ErrorIs(t, err, ErrInvalidStake)

	_, err = b.CreateTicket(context.Background(), "user-1", -10, []LegInput{legInput("fx-1", "1.5")})
	assert.ErrorIs(t, err, ErrInvalidStake)

	assert.Zero(t, store.calls)
}

func TestCreateTicketEmptyLegs(t *testing.T) {
	b, store := newTestBuilder(1000, nil)

	_, err := b.CreateTicket(context.Background(), "user-1", 100, nil)
	assert.ErrorIs(t, err, ErrEmptyLegs)
	assert.Zero(t, store.calls)
}

func TestCreateTicketFixtureNotFound(t *testing.T) {
	b, store := newTestBuilder(1000, map[string]bool{"fx-1": true})

	_, err := b.CreateTicket(context.Background(), "user-1", 100, []LegInput{
		legInput("fx-1", "1.5"),
		legInput("fx-missing", "2.0"),
	})

	var notFound FixtureNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "fx-missing", notFound.FixtureID)
	assert.Zero(t, store.calls, "lote inteiro falha; nada persiste")
}

func TestCreateTicketFixtureNotBettable(t *testing.T) {
	b, store := newTestBuilder(1000, map[string]bool{"fx-1": true, "fx-closed": false})

	_, err := b.CreateTicket(context.Background(), "user-1", 100, []LegInput{
		legInput("fx-1", "1.5"),
		legInput("fx-closed", "2.0"),
	})

	var notBettable FixtureNotBettableError
	require.ErrorAs(t, err, &notBettable)
	assert.Equal(t, "fx-closed", notBettable.FixtureID)
	assert.Zero(t, store.calls)
}

func TestCreateTicketInsufficientBalance(t *testing.T) {
	b, store := newTestBuilder(50, map[string]bool{"fx-1": true})

	_, err := b.CreateTicket(context.Background(), "user-1", 100, []LegInput{legInput("fx-1", "1.5")})

	var insufficient InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(100), insufficient.Required)
	assert.Equal(t, int64(50), insufficient.Available)
	assert.Zero(t, store.calls, "saldo não pode ser tocado")
}

func TestCreateTicketStakeIsSharedNotPerLeg(t *testing.T) {
	// saldo 100 cobre stake 100 mesmo com 3 pernas
	b, store := newTestBuilder(100, map[string]bool{"fx-1": true, "fx-2": true, "fx-3": true})

	res, err := b.CreateTicket(context.Background(), "user-1", 100, []LegInput{
		legInput("fx-1", "1.5"),
		legInput("fx-2", "2.0"),
		legInput("fx-3", "1.1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, int64(100), store.lastStake, "debita stake uma única vez, independente do número de pernas")
	assert.Len(t, res.Legs, 3)
}

func TestCreateTicketCombinedOddsAndWinnings(t *testing.T) {
	b, _ := newTestBuilder(1000, map[string]bool{"fx-1": true, "fx-2": true})

	res, err := b.CreateTicket(context.Background(), "user-1", 100, []LegInput{
		legInput("fx-1", "1.5"),
		legInput("fx-2", "2.0"),
	})
	require.NoError(t, err)

	assert.True(t, res.CombinedOdds.Equal(decimal.RequireFromString("3.0")),
		"combinedOdds = 1.5 × 2.0, got %s", res.CombinedOdds)
	assert.True(t, res.PotentialWinnings.Equal(decimal.RequireFromString("300.0")),
		"potentialWinnings = stake × combinedOdds, got %s", res.PotentialWinnings)

	for _, l := range res.Legs {
		assert.Equal(t, StatusPending, l.Status)
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, "ticket-1", l.TicketID)
	}
}

func TestOverallStatus(t *testing.T) {
	leg := func(status string) Leg { return Leg{Status: status, Odd: decimal.NewFromInt(2)} }

	tests := []struct {
		name string
		legs []Leg
		want string
	}{
		{"all won", []Leg{leg(StatusWon), leg(StatusWon)}, StatusWon},
		{"any lost kills the ticket", []Leg{leg(StatusWon), leg(StatusLost)}, StatusLost},
		{"pending keeps it open", []Leg{leg(StatusWon), leg(StatusPending)}, StatusPending},
		{"all void", []Leg{leg(StatusVoid), leg(StatusVoid)}, StatusVoid},
		{"void is neutral next to won", []Leg{leg(StatusWon), leg(StatusVoid)}, StatusWon},
		{"lost beats pending", []Leg{leg(StatusPending), leg(StatusLost)}, StatusLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallStatus(tt.legs))
		})
	}
}
