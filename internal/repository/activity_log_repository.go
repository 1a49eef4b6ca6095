package repository

import (
	"context"
	"time"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
)

type ActivityLogRepository struct {
	DB *db.Postgres
}

type CreateActivityLogInput struct {
	Title     string
	Message   string
	Actor     string
	Type      domain.ActivityLogType
	Timestamp time.Time
}

func (r ActivityLogRepository) Create(ctx context.Context, hubID int64, in CreateActivityLogInput) (int64, error) {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}
	if in.Type == "" {
		in.Type = domain.LogInfo
	}
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO activity_logs (hub_id, title, message, actor, type, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, hubID, in.Title, in.Message, in.Actor, string(in.Type), in.Timestamp).Scan(&id)
	return id, err
}

func (r ActivityLogRepository) List(ctx context.Context, hubID int64, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, hub_id, title, message, actor, type, logged_at
		FROM activity_logs
		WHERE deleted_at IS NULL AND hub_id=$1
		ORDER BY logged_at DESC, id DESC
		LIMIT $2
	`, hubID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityLog
	for rows.Next() {
		var l domain.ActivityLog
		var typ string
		if err := rows.Scan(&l.ID, &l.HubID, &l.Title, &l.Message, &l.Actor, &typ, &l.LoggedAt); err != nil {
			return nil, err
		}
		l.Type = domain.ActivityLogType(typ)
		out = append(out, l)
	}
	return out, rows.Err()
}
