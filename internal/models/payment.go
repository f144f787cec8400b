package models

import "time"

// Payment records a completed Telegram Stars purchase.
type Payment struct {
	PaymentID   int       `json:"payment_id"`
	UserID      int64     `json:"user_id"`
	StarsAmount int       `json:"stars_amount"`
	Payload     string    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}
