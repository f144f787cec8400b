package repository

import (
	"context"

	"studybot/internal/database"
	"studybot/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO payments (user_id, stars_amount, payload)
		 VALUES ($1, $2, $3)
		 RETURNING payment_id, created_at`,
		payment.UserID, payment.StarsAmount, payment.Payload,
	).Scan(&payment.PaymentID, &payment.CreatedAt)
}

// Totals returns the number of payments and the total stars collected.
func (r *PaymentRepository) Totals(ctx context.Context) (count int, stars int, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(stars_amount), 0) FROM payments`,
	).Scan(&count, &stars)
	return count, stars, err
}
