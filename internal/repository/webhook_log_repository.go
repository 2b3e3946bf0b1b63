package repository

import (
	"database/sql"
	"time"

	"github.com/instadm-io/instadm-backend/internal/model"
)

type WebhookLogRepositoryInterface interface {
	Append(eventType, payload string, processed bool, result string) error
	List(limit int) ([]model.WebhookLog, error)
}

// WebhookLogRepository stores raw webhook deliveries for operational
// debugging. Append-only; business logic never reads it.
type WebhookLogRepository struct {
	DB *sql.DB
}

func (r *WebhookLogRepository) Append(eventType, payload string, processed bool, result string) error {
	_, err := r.DB.Exec(`
		INSERT INTO webhook_logs (event_type, payload, processed, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, eventType, payload, processed, result, time.Now())
	return err
}

func (r *WebhookLogRepository) List(limit int) ([]model.WebhookLog, error) {
	rows, err := r.DB.Query(`
		SELECT id, COALESCE(event_type, ''), COALESCE(payload, ''), processed, COALESCE(result, ''), created_at
		FROM webhook_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.WebhookLog{}
	for rows.Next() {
		var l model.WebhookLog
		if err := rows.Scan(&l.ID, &l.EventType, &l.Payload, &l.Processed, &l.Result, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ WebhookLogRepositoryInterface = (*WebhookLogRepository)(nil)
