package ticket

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
)

// Wallet é a visão de carteira que o builder precisa: só consulta de saldo.
// O débito em si acontece dentro da transação do Store, junto com os inserts.
type Wallet interface {
	Balance(ctx context.Context, userID string) (int64, error)
}

// Fixtures valida existência e flag de apostas das partidas referenciadas.
type Fixtures interface {
	IsBettable(ctx context.Context, fixtureID string) (bool, error)
}

// Store persiste o bilhete. CreateTicket é tudo-ou-nada:
// débito da stake e inserção de todas as pernas na mesma transação.
type Store interface {
	CreateTicket(ctx context.Context, userID string, stakePoints int64, legs []LegInput) (ticketID string, created []Leg, err error)
	LegsByTicket(ctx context.Context, ticketID string) ([]Leg, error)
	LegsByUser(ctx context.Context, userID string) ([]Leg, error)
}

// CreateResult é o eco do bilhete criado, com ids atribuídos.
type CreateResult struct {
	TicketID          string
	StakePoints       int64
	CombinedOdds      decimal.Decimal
	PotentialWinnings decimal.Decimal
	Legs              []Leg
}

// View é a visão agregada de um bilhete já existente.
type View struct {
	TicketID          string
	UserID            string
	StakePoints       int64
	Status            string
	CombinedOdds      decimal.Decimal
	PotentialWinnings decimal.Decimal
	CreatedAt         int64 // unix ms da perna mais antiga
	Legs              []Leg
}

var ErrTicketNotFound = errors.New("ticket not found")

// Builder monta e persiste bilhetes multi-perna.
type Builder struct {
	log      *zap.Logger
	wallet   Wallet
	fixtures Fixtures
	store    Store
}

func NewBuilder(log *zap.Logger, w Wallet, f Fixtures, s Store) *Builder {
	return &Builder{log: log, wallet: w, fixtures: f, store: s}
}

// CreateTicket valida, debita a stake e insere as pernas com status PENDING.
// Qualquer perna inválida falha o lote inteiro; nada é persistido.
func (b *Builder) CreateTicket(ctx context.Context, userID string, stakePoints int64, legs []LegInput) (*CreateResult, error) {
	if stakePoints <= 0 {
		return nil, ErrInvalidStake
	}
	if len(legs) == 0 {
		return nil, ErrEmptyLegs
	}

	// toda partida referenciada precisa existir e aceitar apostas
	for _, l := range legs {
		ok, err := b.fixtures.IsBettable(ctx, l.FixtureID)
		if errors.Is(err, fixture.ErrNotFound) {
			return nil, FixtureNotFoundError{FixtureID: l.FixtureID}
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, FixtureNotBettableError{FixtureID: l.FixtureID}
		}
	}

	// stake é compartilhada pelo bilhete: exige stake, não stake × pernas
	available, err := b.wallet.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if available < stakePoints {
		return nil, InsufficientBalanceError{Required: stakePoints, Available: available}
	}

	// o Store refaz a checagem de saldo sob lock; corrida entre o Balance acima
	// e o débito real resolve em InsufficientBalanceError aqui também
	ticketID, created, err := b.store.CreateTicket(ctx, userID, stakePoints, legs)
	if err != nil {
		return nil, err
	}

	combined := CombinedOdds(created)
	potential := PotentialWinnings(stakePoints, combined)

	b.log.Info("ticket created",
		zap.String("ticketId", ticketID),
		zap.String("userId", userID),
		zap.Int("legs", len(created)),
		zap.Int64("stake", stakePoints),
		zap.String("combinedOdds", combined.String()),
		zap.String("potentialWinnings", potential.String()),
	)

	return &CreateResult{
		TicketID:          ticketID,
		StakePoints:       stakePoints,
		CombinedOdds:      combined,
		PotentialWinnings: potential,
		Legs:              created,
	}, nil
}

// GetTicket devolve a visão agregada de um bilhete do usuário.
func (b *Builder) GetTicket(ctx context.Context, userID, ticketID string) (*View, error) {
	legs, err := b.store.LegsByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 || legs[0].UserID != userID {
		return nil, ErrTicketNotFound
	}
	v := buildView(legs)
	return &v, nil
}

// ListTickets agrupa as pernas do usuário por bilhete, mais recente primeiro.
func (b *Builder) ListTickets(ctx context.Context, userID string) ([]View, error) {
	legs, err := b.store.LegsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byTicket := make(map[string][]Leg)
	for _, l := range legs {
		byTicket[l.TicketID] = append(byTicket[l.TicketID], l)
	}

	views := make([]View, 0, len(byTicket))
	for _, group := range byTicket {
		views = append(views, buildView(group))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt > views[j].CreatedAt })
	return views, nil
}

func buildView(legs []Leg) View {
	combined := CombinedOdds(legs)
	first := legs[0]
	createdAt := first.CreatedAt
	for _, l := range legs[1:] {
		if l.CreatedAt.Before(createdAt) {
			createdAt = l.CreatedAt
		}
	}
	return View{
		TicketID:          first.TicketID,
		UserID:            first.UserID,
		StakePoints:       first.StakePoints,
		Status:            OverallStatus(legs),
		CombinedOdds:      combined,
		PotentialWinnings: PotentialWinnings(first.StakePoints, combined),
		CreatedAt:         createdAt.UnixMilli(),
		Legs:              legs,
	}
}
