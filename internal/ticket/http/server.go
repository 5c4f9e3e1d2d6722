package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/market"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket"
	"github.com/MichaelRouhana/fyp-bet-platform/internal/ticket/dto"
	"github.com/MichaelRouhana/fyp-bet-platform/pkg/contracts/events"
)

// Publisher publica o evento ticket_placed após a criação do bilhete.
type Publisher interface {
	PublishTicketPlaced(context.Context, events.TicketPlaced) error
}

type Server struct {
	log     *zap.Logger
	builder *ticket.Builder
	publ    Publisher
}

func NewServer(log *zap.Logger, b *ticket.Builder, p Publisher) *Server {
	return &Server{log: log, builder: b, publ: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets", s.tickets)    // POST cria; GET ?userId=... lista
	mux.HandleFunc("/tickets/", s.getTicket) // GET /tickets/{id}?userId=...
	return mux
}

func (s *Server) tickets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTicket(w, r)
	case http.MethodGet:
		s.listTickets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	legs := make([]ticket.LegInput, 0, len(req.Legs))
	for _, l := range req.Legs {
		legs = append(legs, ticket.LegInput{
			FixtureID: l.FixtureID,
			Market:    market.Type(l.Market),
			Selection: l.Selection,
			Odd:       l.Odd,
		})
	}

	res, err := s.builder.CreateTicket(r.Context(), req.UserID, req.StakePoints, legs)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	// evento é best-effort: falha de publicação não desfaz o bilhete
	if err := s.publ.PublishTicketPlaced(r.Context(), events.TicketPlaced{
		TicketID:    res.TicketID,
		UserID:      req.UserID,
		StakePoints: req.StakePoints,
		Legs:        placedLegs(res.Legs),
	}); err != nil {
		s.log.Warn("ticket_placed publish failed", zap.String("ticketId", res.TicketID), zap.Error(err))
	}

	writeJSON(w, dto.TicketResponse{
		TicketID:          res.TicketID,
		Status:            ticket.StatusPending,
		StakePoints:       res.StakePoints,
		CombinedOdds:      res.CombinedOdds,
		PotentialWinnings: res.PotentialWinnings,
		Legs:              legResponses(res.Legs),
	})
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// path: /tickets/{id}
	id := r.URL.Path[len("/tickets/"):]
	userID := r.URL.Query().Get("userId")
	if id == "" || userID == "" {
		http.Error(w, "ticketId and userId required", http.StatusBadRequest)
		return
	}

	v, err := s.builder.GetTicket(r.Context(), userID, id)
	if errors.Is(err, ticket.ErrTicketNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, viewResponse(*v))
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	views, err := s.builder.ListTickets(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := dto.TicketListResponse{Tickets: make([]dto.TicketResponse, 0, len(views))}
	for _, v := range views {
		out.Tickets = append(out.Tickets, viewResponse(v))
	}
	writeJSON(w, out)
}

// writeBuilderError mapeia os erros tipados do builder para status HTTP
func writeBuilderError(w http.ResponseWriter, err error) {
	var notFound ticket.FixtureNotFoundError
	var notBettable ticket.FixtureNotBettableError
	var insufficient ticket.InsufficientBalanceError

	switch {
	case errors.Is(err, ticket.ErrInvalidStake), errors.Is(err, ticket.ErrEmptyLegs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &notBettable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &insufficient):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func viewResponse(v ticket.View) dto.TicketResponse {
	return dto.TicketResponse{
		TicketID:          v.TicketID,
		Status:            v.Status,
		StakePoints:       v.StakePoints,
		CombinedOdds:      v.CombinedOdds,
		PotentialWinnings: v.PotentialWinnings,
		CreatedAtUnixMs:   v.CreatedAt,
		Legs:              legResponses(v.Legs),
	}
}

func placedLegs(legs []ticket.Leg) []events.TicketPlacedLeg {
	out := make([]events.TicketPlacedLeg, 0, len(legs))
	for _, l := range legs {
		out = append(out, events.TicketPlacedLeg{
			LegID:     l.ID,
			FixtureID: l.FixtureID,
			Market:    string(l.Market),
			Selection: l.Selection,
			Odd:       l.Odd.String(),
		})
	}
	return out
}

func legResponses(legs []ticket.Leg) []dto.LegResponse {
	out := make([]dto.LegResponse, 0, len(legs))
	for _, l := range legs {
		out = append(out, dto.LegResponse{
			LegID:     l.ID,
			FixtureID: l.FixtureID,
			Market:    string(l.Market),
			Selection: l.Selection,
			Odd:       l.Odd,
			Status:    l.Status,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
