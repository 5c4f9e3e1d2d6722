package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type CreateTicketRequest struct {
	UserID      string             `json:"userId" validate:"required"`
	StakePoints int64              `json:"stake_points" validate:"required,gt=0"`
	Legs        []CreateLegRequest `json:"legs" validate:"required,min=1,dive"`
}

type CreateLegRequest struct {
	FixtureID string          `json:"fixtureId" validate:"required"`
	Market    string          `json:"market" validate:"required"` // ex: "MATCH_WINNER"
	Selection string          `json:"selection" validate:"required"`
	Odd       decimal.Decimal `json:"odd"` // odd pré-cotada que o cliente viu
}

func (r *CreateTicketRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	// decimal não carrega tag do validator; checagem manual
	for _, l := range r.Legs {
		if !l.Odd.IsPositive() {
			return errors.New("leg odd must be greater than 0")
		}
	}
	return nil
}
