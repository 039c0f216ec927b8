// Package audit appends admin-action records to the platform audit log.
//
// Recording is best-effort: an audit insert failing must never fail the
// operation it describes, so errors are logged and swallowed here.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Recorder writes audit entries to PostgreSQL.
type Recorder struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(db *pgxpool.Pool, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record appends one audit entry. action is a dotted event name
// ("domain.claimed"), subject identifies the affected resource, and meta
// carries event-specific detail.
func (r *Recorder) Record(ctx context.Context, tenantID uuid.UUID, action, subject string, meta map[string]string) {
	var metaJSON []byte
	if len(meta) > 0 {
		var err error
		metaJSON, err = json.Marshal(meta)
		if err != nil {
			r.logger.Warn("audit: marshal metadata", zap.Error(err))
			metaJSON = nil
		}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_log (id, tenant_id, action, subject, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), tenantID, action, subject, metaJSON, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Warn("audit: record entry",
			zap.String("action", action),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
