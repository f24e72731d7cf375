package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	_insertActivity = `INSERT INTO activities (
							id,
							portfolio_id,
							event_kind,
							payload,
							created_at
						) VALUES ($1,$2,$3,$4,$5)`
)

// ActivityStore is the best-effort notification sink. Callers treat
// failures as log-and-continue; nothing here participates in the
// settlement transaction.
type ActivityStore struct {
	db *sqlx.DB
}

func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Record(ctx context.Context, portfolioID, eventKind, payload string) error {
	if _, err := s.db.ExecContext(ctx, _insertActivity, uuid.NewString(), portfolioID, eventKind, payload, time.Now()); err != nil {
		return fmt.Errorf("%w: can't record activity %s", err, eventKind)
	}
	return nil
}
