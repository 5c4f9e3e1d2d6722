package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket"
)

type fakeProvider struct {
	results map[string]fixture.Result
}

func (f *fakeProvider) Result(_ context.Context, id string) (fixture.Result, error) {
	res, ok := f.results[id]
	if !ok {
		return fixture.Result{}, fixture.ErrNotFound
	}
	return res, nil
}

func (f *fakeProvider) IsBettable(_ context.Context, _ string) (bool, error) { return false, nil }

type payout struct {
	userID string
	amount int64
}

type fakeStore struct {
	legs map[string]*ticket.Leg

	payouts map[string]payout // ticketID → pagamento aplicado

	markErr    map[string]error // legID → erro forçado em MarkSettled
	markPanic  map[string]bool  // legID → pânico forçado
	payoutErrs map[string]error // ticketID → erro forçado (uma vez) em PayoutTicket
}

func newFakeStore(legs ...*ticket.Leg) *fakeStore {
	s := &fakeStore{
		legs:       make(map[string]*ticket.Leg),
		payouts:    make(map[string]payout),
		markErr:    make(map[string]error),
		markPanic:  make(map[string]bool),
		payoutErrs: make(map[string]error),
	}
	for _, l := range legs {
		s.legs[l.ID] = l
	}
	return s
}

func (s *fakeStore) PendingLegsByFixture(_ context.Context, fixtureID string) ([]ticket.Leg, error) {
	var out []ticket.Leg
	for _, l := range s.legs {
		if l.FixtureID == fixtureID && l.Status == ticket.StatusPending {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkSettled(_ context.Context, legID string, status string) (bool, error) {
	if s.markPanic[legID] {
		panic("storage exploded")
	}
	if err := s.markErr[legID]; err != nil {
		return false, err
	}
	l, ok := s.legs[legID]
	if !ok || l.Status != ticket.StatusPending {
		return false, nil
	}
	l.Status = status
	return true, nil
}

func (s *fakeStore) TicketLegs(_ context.Context, ticketID string) ([]ticket.Leg, error) {
	var out []ticket.Leg
	for _, l := range s.legs {
		if l.TicketID == ticketID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeStore) PayoutTicket(_ context.Context, ticketID, userID string, amount int64) (bool, error) {
	if err := s.payoutErrs[ticketID]; err != nil {
		delete(s.payoutErrs, ticketID)
		return false, err
	}
	if _, exists := s.payouts[ticketID]; exists {
		return false, nil
	}
	s.payouts[ticketID] = payout{userID: userID, amount: amount}
	return true, nil
}

func (s *fakeStore) TicketsAwaitingPayout(_ context.Context) ([]string, error) {
	byTicket := map[string][]*ticket.Leg{}
	for _, l := range s.legs {
		byTicket[l.TicketID] = append(byTicket[l.TicketID], l)
	}

	var out []string
	for tid, legs := range byTicket {
		if _, paid := s.payouts[tid]; paid {
			continue
		}
		eligible := true
		for _, l := range legs {
			if l.Status == ticket.StatusPending || l.Status == ticket.StatusLost {
				eligible = false
				break
			}
		}
		if eligible {
			out = append(out, tid)
		}
	}
	return out, nil
}

func (s *fakeStore) FixturesWithPendingLegs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, l := range s.legs {
		if l.Status == ticket.StatusPending && !seen[l.FixtureID] {
			seen[l.FixtureID] = true
			out = append(out, l.FixtureID)
		}
	}
	return out, nil
}

func testLeg(id, ticketID, fixtureID string, m market.Type, selection, odd string) *ticket.Leg {
	return &ticket.Leg{
		ID:          id,
		TicketID:    ticketID,
		UserID:      "user-1",
		FixtureID:   fixtureID,
		Market:      m,
		Selection:   selection,
		StakePoints: 100,
		Odd:         decimal.RequireFromString(odd),
		Status:      ticket.StatusPending,
	}
}

func newEngine(store *fakeStore, results map[string]fixture.Result) *Engine {
	return &Engine{
		Log:     zap.NewNop(),
		Results: &fakeProvider{results: results},
		Store:   store,
	}
}

func TestResolveFixtureNotConcludedIsNoOp(t *testing.T) {
	store := newFakeStore(testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"))
	e := newEngine(store, map[string]fixture.Result{"fx-1": {Concluded: false}})

	rep, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Zero(t, rep.Resolved)
	assert.Zero(t, rep.Errored)
	assert.Equal(t, ticket.StatusPending, store.legs["l1"].Status)
}

func TestResolveFixtureSettlesAllPendingLegs(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l2", "t2", "fx-1", market.GoalsOverUnder, "OVER 2.5", "1.9"),
		testLeg("l3", "t3", "fx-1", market.ScorePrediction, "2-1", "7.0"),
	)
	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 2, AwayGoals: 1},
	})

	rep, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Resolved)
	assert.Zero(t, rep.Errored)

	assert.Equal(t, ticket.StatusWon, store.legs["l1"].Status)
	assert.Equal(t, ticket.StatusWon, store.legs["l2"].Status)
	assert.Equal(t, ticket.StatusWon, store.legs["l3"].Status)
}

func TestResolveFixtureIsIdempotent(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "AWAY", "2.0"),
	)
	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 3, AwayGoals: 0},
	})

	rep1, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep1.Resolved)
	assert.Equal(t, ticket.StatusLost, store.legs["l1"].Status)

	// segunda invocação não encontra mais nada PENDING: zero mudanças
	rep2, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Zero(t, rep2.Resolved)
	assert.Zero(t, rep2.Errored)
	assert.Equal(t, ticket.StatusLost, store.legs["l1"].Status)
}

func TestResolveFixtureIsolatesLegFailures(t *testing.T) {
	store := newFakeStore(
		testLeg("l-bad", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l-ok", "t2", "fx-1", market.BothTeamsToScore, "Yes", "1.8"),
	)
	store.markErr["l-bad"] = errors.New("deadlock detected")

	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 1, AwayGoals: 1},
	})

	rep, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Resolved)
	assert.Equal(t, 1, rep.Errored)

	// a perna que falhou continua PENDING; a irmã chegou ao estado terminal
	assert.Equal(t, ticket.StatusPending, store.legs["l-bad"].Status)
	assert.Equal(t, ticket.StatusWon, store.legs["l-ok"].Status)
}

func TestResolveFixtureIsolatesPanics(t *testing.T) {
	store := newFakeStore(
		testLeg("l-panic", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l-ok", "t2", "fx-1", market.MatchWinner, "AWAY", "2.0"),
	)
	store.markPanic["l-panic"] = true

	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 0, AwayGoals: 1},
	})

	rep, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Resolved)
	assert.Equal(t, 1, rep.Errored)
	assert.Equal(t, ticket.StatusWon, store.legs["l-ok"].Status)
}

func TestResolveFixtureUnknownMarketGoesVoid(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.Type("HALF_TIME_WINNER"), "HOME", "3.0"),
	)
	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 2, AwayGoals: 0},
	})

	rep, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Resolved)
	assert.Equal(t, ticket.StatusVoid, store.legs["l1"].Status)
}

func TestPayoutWhenAllLegsWon(t *testing.T) {
	// bilhete t1: duas pernas, stake 100, odds 1.5 × 2.0 → prêmio 300
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l2", "t1", "fx-2", market.MatchWinner, "AWAY", "2.0"),
	)
	results := map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 1, AwayGoals: 0},
		"fx-2": {Concluded: true, HomeGoals: 0, AwayGoals: 2},
	}
	e := newEngine(store, results)

	_, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Empty(t, store.payouts, "bilhete ainda tem perna PENDING; não paga")

	_, err = e.ResolveFixture(context.Background(), "fx-2")
	require.NoError(t, err)

	require.Contains(t, store.payouts, "t1")
	assert.Equal(t, int64(300), store.payouts["t1"].amount)
	assert.Equal(t, "user-1", store.payouts["t1"].userID)
}

func TestNoPayoutWhenAnyLegLost(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l2", "t1", "fx-2", market.MatchWinner, "HOME", "2.0"),
	)
	results := map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 1, AwayGoals: 0}, // HOME ganha
		"fx-2": {Concluded: true, HomeGoals: 0, AwayGoals: 2}, // HOME perde
	}
	e := newEngine(store, results)

	_, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	_, err = e.ResolveFixture(context.Background(), "fx-2")
	require.NoError(t, err)

	assert.Empty(t, store.payouts)
}

func TestVoidLegsAreNeutralInPayout(t *testing.T) {
	// perna VOID entra com fator 1: prêmio = 100 × 1.5
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l2", "t1", "fx-2", market.FirstTeamToScore, "HOME", "2.0"),
	)
	results := map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 1, AwayGoals: 0},
		// sem fato derivado de primeiro gol → VOID
		"fx-2": {Concluded: true, HomeGoals: 1, AwayGoals: 1},
	}
	e := newEngine(store, results)

	_, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	_, err = e.ResolveFixture(context.Background(), "fx-2")
	require.NoError(t, err)

	require.Contains(t, store.payouts, "t1")
	assert.Equal(t, int64(150), store.payouts["t1"].amount)
}

func TestAllVoidTicketRefundsStake(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.FirstTeamToScore, "HOME", "2.0"),
	)
	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 0, AwayGoals: 0},
	})

	_, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)

	require.Contains(t, store.payouts, "t1")
	assert.Equal(t, int64(100), store.payouts["t1"].amount, "tudo VOID devolve exatamente a stake")
}

func TestSweepCoversEveryFixtureWithPendingLegs(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l2", "t2", "fx-2", market.MatchWinner, "DRAW", "3.2"),
		testLeg("l3", "t3", "fx-live", market.MatchWinner, "AWAY", "2.5"),
	)
	e := newEngine(store, map[string]fixture.Result{
		"fx-1":    {Concluded: true, HomeGoals: 2, AwayGoals: 0},
		"fx-2":    {Concluded: true, HomeGoals: 1, AwayGoals: 1},
		"fx-live": {Concluded: false},
	})

	rep, err := e.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Resolved)

	assert.Equal(t, ticket.StatusWon, store.legs["l1"].Status)
	assert.Equal(t, ticket.StatusWon, store.legs["l2"].Status)
	assert.Equal(t, ticket.StatusPending, store.legs["l3"].Status, "partida em andamento fica pra próxima varredura")
}

func TestSweepRetriesPayoutAfterTransientError(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
	)
	store.payoutErrs["t1"] = errors.New("connection reset by peer")

	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 1, AwayGoals: 0},
	})

	// a perna vira WON mas o crédito falha; bilhete fica sem pagamento
	rep, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Errored)
	assert.Equal(t, ticket.StatusWon, store.legs["l1"].Status)
	assert.Empty(t, store.payouts)

	// nada mais está PENDING, então ResolveFixture sozinho não revisita
	rep, err = e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Zero(t, rep.Resolved)
	assert.Empty(t, store.payouts)

	// a varredura cobre bilhetes terminais ainda não pagos
	_, err = e.Sweep(context.Background())
	require.NoError(t, err)
	require.Contains(t, store.payouts, "t1")
	assert.Equal(t, int64(150), store.payouts["t1"].amount)
	assert.Equal(t, "user-1", store.payouts["t1"].userID)
}

func TestMetricCallbacks(t *testing.T) {
	store := newFakeStore(
		testLeg("l1", "t1", "fx-1", market.MatchWinner, "HOME", "1.5"),
		testLeg("l2", "t2", "fx-1", market.MatchWinner, "AWAY", "2.0"),
	)
	store.markErr["l2"] = errors.New("boom")

	resolved := map[string]int{}
	errored := 0

	e := newEngine(store, map[string]fixture.Result{
		"fx-1": {Concluded: true, HomeGoals: 1, AwayGoals: 0},
	})
	e.OnResolved = func(outcome string) { resolved[outcome]++ }
	e.OnErrored = func() { errored++ }

	_, err := e.ResolveFixture(context.Background(), "fx-1")
	require.NoError(t, err)

	assert.Equal(t, 1, resolved["WON"])
	assert.Equal(t, 1, errored)
}
