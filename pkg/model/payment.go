package model

type PaymentRequest struct {
	Phone  string `json:"phone" validate:"required"`
	Amount int    `json:"amount" validate:"required,min=1,max=250000"`
}
