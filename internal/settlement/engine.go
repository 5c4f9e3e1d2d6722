package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket"
	"github.com/MichaelRouhana/fyp-bet-platform/pkg/contracts/events"
)

// Store é a visão de persistência que a liquidação precisa.
type Store interface {
	// PendingLegsByFixture retorna só as pernas ainda PENDING da partida;
	// pernas já resolvidas nunca são revisitadas.
	PendingLegsByFixture(ctx context.Context, fixtureID string) ([]ticket.Leg, error)
	// MarkSettled aplica PENDING→status condicionalmente (UPDATE ... WHERE status='PENDING').
	// applied=false significa que uma resolução concorrente chegou primeiro.
	MarkSettled(ctx context.Context, legID string, status string) (applied bool, err error)
	// TicketLegs retorna todas as pernas do bilhete, para decidir o pagamento.
	TicketLegs(ctx context.Context, ticketID string) ([]ticket.Leg, error)
	// PayoutTicket credita o prêmio no máximo uma vez por bilhete.
	PayoutTicket(ctx context.Context, ticketID, userID string, amountPoints int64) (paid bool, err error)
	// FixturesWithPendingLegs alimenta a varredura periódica.
	FixturesWithPendingLegs(ctx context.Context) ([]string, error)
	// TicketsAwaitingPayout lista bilhetes com todas as pernas terminais,
	// nenhuma LOST e ainda sem linha em ticket_payouts.
	TicketsAwaitingPayout(ctx context.Context) ([]string, error)
}

// Publisher emite leg_settled para cada transição aplicada. Pode ser nil.
type Publisher interface {
	PublishLegSettled(ctx context.Context, e events.LegSettled) error
}

// Report resume uma invocação de ResolveFixture.
type Report struct {
	Resolved int
	Errored  int
}

// Engine resolve as pernas pendentes de partidas concluídas.
// Reinvocável com segurança: perna já resolvida não muda, perna que falhou
// continua PENDING e entra na próxima passada.
type Engine struct {
	Log       *zap.Logger
	Results   fixture.Provider
	Store     Store
	Publisher Publisher

	OnResolved func(outcome string) // métricas (counter++ por resultado)
	OnErrored  func()               // métricas
}

// ResolveFixture resolve todas as pernas PENDING que referenciam a partida.
// Partida ainda em andamento é no-op. Falha de uma perna é registrada e
// isolada: as irmãs do lote continuam sendo processadas.
func (e *Engine) ResolveFixture(ctx context.Context, fixtureID string) (Report, error) {
	res, err := e.Results.Result(ctx, fixtureID)
	if err != nil {
		return Report{}, err
	}
	if !res.Concluded {
		return Report{}, nil
	}

	legs, err := e.Store.PendingLegsByFixture(ctx, fixtureID)
	if err != nil {
		return Report{}, err
	}

	score := market.Score{
		HomeGoals:   res.HomeGoals,
		AwayGoals:   res.AwayGoals,
		FirstScorer: res.FirstScorer,
	}

	var rep Report
	for _, leg := range legs {
		if err := e.resolveLeg(ctx, leg, score); err != nil {
			e.Log.Error("leg resolution failed",
				zap.String("legId", leg.ID),
				zap.String("fixtureId", fixtureID),
				zap.String("market", string(leg.Market)),
				zap.String("selection", leg.Selection),
				zap.Error(err),
			)
			rep.Errored++
			if e.OnErrored != nil {
				e.OnErrored()
			}
			continue
		}
		rep.Resolved++
	}
	return rep, nil
}

// Sweep roda ResolveFixture para toda partida que ainda tem perna PENDING
// e refaz pagamentos que falharam depois da última perna virar terminal
// (a perna já não é mais PENDING, então ResolveFixture sozinho não a revisita).
// Falha numa partida não interrompe a varredura das demais.
func (e *Engine) Sweep(ctx context.Context) (Report, error) {
	fixtures, err := e.Store.FixturesWithPendingLegs(ctx)
	if err != nil {
		return Report{}, err
	}

	var total Report
	for _, id := range fixtures {
		rep, err := e.ResolveFixture(ctx, id)
		if err != nil {
			e.Log.Warn("sweep: fixture skipped", zap.String("fixtureId", id), zap.Error(err))
			continue
		}
		total.Resolved += rep.Resolved
		total.Errored += rep.Errored
	}

	tickets, err := e.Store.TicketsAwaitingPayout(ctx)
	if err != nil {
		return total, err
	}
	for _, ticketID := range tickets {
		if err := e.maybePayout(ctx, ticketID); err != nil {
			e.Log.Warn("sweep: payout retry failed", zap.String("ticketId", ticketID), zap.Error(err))
		}
	}
	return total, nil
}

func (e *Engine) resolveLeg(ctx context.Context, leg ticket.Leg, score market.Score) (err error) {
	// resolvers são puros, mas a regra é isolar qualquer falha por perna
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic resolving leg: %v", r)
		}
	}()

	outcome := market.Resolve(leg.Market, leg.Selection, score)

	applied, err := e.Store.MarkSettled(ctx, leg.ID, string(outcome))
	if err != nil {
		return err
	}
	if !applied {
		// resolução concorrente chegou primeiro; transição é terminal, nada a fazer
		return nil
	}

	if e.OnResolved != nil {
		e.OnResolved(string(outcome))
	}

	if e.Publisher != nil {
		perr := e.Publisher.PublishLegSettled(ctx, events.LegSettled{
			LegID:     leg.ID,
			TicketID:  leg.TicketID,
			UserID:    leg.UserID,
			FixtureID: leg.FixtureID,
			Market:    string(leg.Market),
			Selection: leg.Selection,
			Status:    string(outcome),
			Ts:        time.Now(),
		})
		if perr != nil {
			// evento é observabilidade, não fonte de verdade; segue o jogo
			e.Log.Warn("leg_settled publish failed", zap.String("legId", leg.ID), zap.Error(perr))
		}
	}

	return e.maybePayout(ctx, leg.TicketID)
}

// maybePayout credita o prêmio quando o bilhete inteiro ficou terminal sem
// nenhuma perna LOST: prêmio = stake × Π odd(pernas WON). Perna VOID entra
// com fator 1, então bilhete todo VOID devolve exatamente a stake.
func (e *Engine) maybePayout(ctx context.Context, ticketID string) error {
	legs, err := e.Store.TicketLegs(ctx, ticketID)
	if err != nil {
		return err
	}
	if len(legs) == 0 {
		return nil
	}

	product := decimal.NewFromInt(1)
	for _, l := range legs {
		switch l.Status {
		case ticket.StatusPending, ticket.StatusLost:
			return nil
		case ticket.StatusWon:
			product = product.Mul(l.Odd)
		}
	}

	// pontos são inteiros; frações de ponto ficam com a casa
	amount := decimal.NewFromInt(legs[0].StakePoints).Mul(product).IntPart()
	if amount <= 0 {
		return nil
	}

	paid, err := e.Store.PayoutTicket(ctx, ticketID, legs[0].UserID, amount)
	if err != nil {
		return err
	}
	if paid {
		e.Log.Info("ticket paid out",
			zap.String("ticketId", ticketID),
			zap.String("userId", legs[0].UserID),
			zap.Int64("amount", amount),
		)
	}
	return nil
}
