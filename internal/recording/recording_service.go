package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var ErrRecordingNotFound = errors.New("recording not found")

const recordingsSchema = `
CREATE TABLE IF NOT EXISTS recordings (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	room_code TEXT NOT NULL DEFAULT '',
	duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Recording is one saved clip's metadata. The video file itself lives on
// disk under the recordings folder; only the row is managed here.
type Recording struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	RoomCode        string    `json:"room_code"`
	DurationSeconds float64   `json:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecordingService is a plain row store; it holds no in-memory state and
// every method is safe for concurrent use through the pool.
type RecordingService struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (s *RecordingService) Save(ctx context.Context, rec *Recording) (int64, error) {
	if rec.Filename == "" {
		return 0, fmt.Errorf("filename is required")
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO recordings (filename, room_code, duration_seconds, size_bytes)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		rec.Filename, rec.RoomCode, rec.DurationSeconds, rec.SizeBytes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert recording: %w", err)
	}
	s.logger.Info("recording saved",
		slog.Int64("id", id),
		slog.String("filename", rec.Filename))
	return id, nil
}

func (s *RecordingService) List(ctx context.Context) ([]Recording, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, filename, room_code, duration_seconds, size_bytes, created_at
		 FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	recordings := make([]Recording, 0)
	for rows.Next() {
		var rec Recording
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.RoomCode,
			&rec.DurationSeconds, &rec.SizeBytes, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}
	return recordings, rows.Err()
}

func (s *RecordingService) Get(ctx context.Context, id int64) (*Recording, error) {
	var rec Recording
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, room_code, duration_seconds, size_bytes, created_at
		 FROM recordings WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Filename, &rec.RoomCode,
		&rec.DurationSeconds, &rec.SizeBytes, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return &rec, nil
}

func (s *RecordingService) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordingNotFound
	}
	return nil
}

func (s *RecordingService) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, recordingsSchema); err != nil {
		return fmt.Errorf("create recordings table: %w", err)
	}
	return nil
}

type newRecordingServiceParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
}

func NewRecordingService(params newRecordingServiceParams) *RecordingService {
	svc := &RecordingService{
		pool:   params.Pool,
		logger: params.Logger,
	}
	params.Lifecycle.Append(fx.Hook{
		OnStart: svc.ensureSchema,
	})
	return svc
}
