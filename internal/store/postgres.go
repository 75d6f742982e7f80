package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/channelwatch/channelwatch/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const jobColumns = `id, channel, email, status, error_message, channel_id, channel_name, videos, created_at, updated_at`

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	videos, err := marshalVideos(job.Videos)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, channel, email, status, error_message, channel_id, channel_name, videos, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.Channel, job.Email, job.Status, job.ErrorMessage,
		job.ChannelID, job.ChannelName, videos, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// MergeJob applies a shallow merge of the patch over the latest record inside
// a transaction. The SELECT ... FOR UPDATE row lock makes each merge a
// single-writer read-modify-write, so duplicate event deliveries racing on
// the same job serialize instead of clobbering each other.
//
// Status rules: re-applying the current status is an idempotent no-op when
// the job is terminal, and a plain merge otherwise; moving to a lower-ranked
// status fails with ErrStatusRegression; any other change to a terminal job
// fails with ErrTerminalStatus.
func (s *PostgresStore) MergeJob(ctx context.Context, id uuid.UUID, opts ...JobPatchOption) (*models.Job, error) {
	patch := BuildPatch(opts...)
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return nil, fmt.Errorf("merge job: unknown status %q", *patch.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("merge job: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := scanJob(tx.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("merge job: read current: %w", err)
	}

	if patch.Status != nil {
		switch {
		case *patch.Status == job.Status:
			if models.TerminalStatus(job.Status) {
				// Duplicate delivery of the merge that made the job
				// terminal; the record is already what it should be.
				return job, nil
			}
		case models.TerminalStatus(job.Status):
			return nil, ErrTerminalStatus
		case models.StatusRank(*patch.Status) < models.StatusRank(job.Status):
			return nil, ErrStatusRegression
		}
		job.Status = *patch.Status
	} else if models.TerminalStatus(job.Status) {
		return nil, ErrTerminalStatus
	}

	if patch.ErrorMessage != nil {
		job.ErrorMessage = patch.ErrorMessage
	}
	if patch.ChannelID != nil {
		job.ChannelID = patch.ChannelID
	}
	if patch.ChannelName != nil {
		job.ChannelName = patch.ChannelName
	}
	if patch.Videos != nil {
		job.Videos = patch.Videos
	}
	// Postgres keeps microsecond precision; truncate so the returned record
	// matches what a later read will see.
	job.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	videos, err := marshalVideos(job.Videos)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE jobs SET status = $2, error_message = $3, channel_id = $4, channel_name = $5, videos = $6, updated_at = $7
		 WHERE id = $1`,
		job.ID, job.Status, job.ErrorMessage, job.ChannelID, job.ChannelName, videos, job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("merge job: write: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("merge job: commit: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	var videos []byte
	if err := row.Scan(&j.ID, &j.Channel, &j.Email, &j.Status, &j.ErrorMessage,
		&j.ChannelID, &j.ChannelName, &videos, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if len(videos) > 0 {
		if err := json.Unmarshal(videos, &j.Videos); err != nil {
			return nil, fmt.Errorf("decode videos column: %w", err)
		}
	}
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return &j, nil
}

func marshalVideos(videos []models.Video) ([]byte, error) {
	if videos == nil {
		return nil, nil
	}
	b, err := json.Marshal(videos)
	if err != nil {
		return nil, fmt.Errorf("encode videos column: %w", err)
	}
	return b, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
