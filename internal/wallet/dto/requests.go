package dto

import "github.com/go-playground/validator/v10"

var validate = validator.New()

type DepositRequest struct {
	UserID       string `json:"userId" validate:"required"`
	AmountPoints int64  `json:"amount_points" validate:"required,gt=0"`
	ExternalRef  string `json:"external_ref,omitempty"` // opcional p/ rastreio no ledger
}

func (r *DepositRequest) Validate() error {
	return validate.Struct(r)
}
