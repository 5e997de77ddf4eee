package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const timelineColumns = `aggregate_id, type, reason, occurred`

type timelineRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTimelineRepository хранит историю заказов и заявок в таблице timeline_events.
func NewTimelineRepository(store *Store) domain.TimelineRepository {
	return &timelineRepository{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *timelineRepository) Append(event domain.TimelineEvent) error {
	event, err := domain.NormalizeTimelineEvent(event, r.now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO timeline_events (`+timelineColumns+`) VALUES ($1, $2, $3, $4)`,
		event.AggregateID, event.Type, event.Reason, event.Occurred,
	); err != nil {
		return fmt.Errorf("append %s event for %s: %w", event.Type, event.AggregateID, err)
	}
	return nil
}

// List отдаёт историю по времени; id (BIGSERIAL) разводит события с одинаковым временем.
func (r *timelineRepository) List(aggregateID string) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+timelineColumns+`
		FROM timeline_events
		WHERE aggregate_id = $1
		ORDER BY occurred, id
	`, strings.TrimSpace(aggregateID))
	if err != nil {
		return nil, fmt.Errorf("query timeline of %s: %w", aggregateID, err)
	}
	defer rows.Close()

	history := []domain.TimelineEvent{}
	for rows.Next() {
		var e domain.TimelineEvent
		if err := rows.Scan(&e.AggregateID, &e.Type, &e.Reason, &e.Occurred); err != nil {
			return nil, fmt.Errorf("scan timeline of %s: %w", aggregateID, err)
		}
		e.Occurred = e.Occurred.UTC()
		history = append(history, e)
	}
	return history, rows.Err()
}
