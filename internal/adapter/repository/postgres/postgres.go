package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

const (
	uniqueViolationErrCode = "23505"
	defaultTimeout         = 3 * time.Second
)

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

// isUnsentError reports failures that happened before the statement reached the server.
func isUnsentError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}

// isTransientError reports failures worth retrying: timeouts and connections
// that broke before the statement reached the server.
func isTransientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}

	return isUnsentError(err)
}

// wrapError maps a driver error onto the entity error kinds.
// A timeout may hit after the server applied the statement, so only
// unsent failures are marked entity.ErrStoreUnreachable.
func wrapError(op, msg string, err error) error {
	if isUnsentError(err) {
		return fmt.Errorf("%s: %s: %w: %w: %w", op, msg, entity.ErrStoreUnavailable, entity.ErrStoreUnreachable, err)
	}

	if isTransientError(err) {
		return fmt.Errorf("%s: %s: %w: %w", op, msg, entity.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%s: %s: %w", op, msg, err)
}

type linkRecord struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	OwnerID     string    `db:"owner_id"`
	ClickCount  int64     `db:"click_count"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *linkRecord) toEntity() *entity.Link {
	return &entity.Link{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		OwnerID:     r.OwnerID,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt,
	}
}

type LinkRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewLinkRepository returns a store bounding every statement by timeout.
// A non-positive timeout falls back to 3s.
func NewLinkRepository(db *sqlx.DB, timeout time.Duration) *LinkRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &LinkRepository{
		db:      db,
		timeout: timeout,
	}
}

// Insert relies on the unique index on short_code, so concurrent callers
// racing for the same code get exactly one winner.
func (r *LinkRepository) Insert(ctx context.Context, originalURL, shortCode, ownerID string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Insert"
	const query = `INSERT INTO links(short_code, original_url, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, short_code, original_url, owner_id, click_count, created_at`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var link linkRecord

	if err := r.db.GetContext(ctx, &link, query, shortCode, originalURL, ownerID); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, wrapError(op, "failed to insert into links table", err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.FindByCode"
	const query = `SELECT id, short_code, original_url, owner_id, click_count, created_at
		FROM links
		WHERE short_code = $1`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var link linkRecord

	if err := r.db.GetContext(ctx, &link, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, wrapError(op, "failed to get row from links table", err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.ListByOwner"
	const query = `SELECT id, short_code, original_url, owner_id, click_count, created_at
		FROM links
		WHERE owner_id = $1
		ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var records []linkRecord

	if err := r.db.SelectContext(ctx, &records, query, ownerID); err != nil {
		return nil, wrapError(op, "failed to select rows from links table", err)
	}

	links := make([]*entity.Link, 0, len(records))
	for i := range records {
		links = append(links, records[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, id int64) error {
	const op = "adapter.repository.postgres.LinkRepository.IncrementClicks"
	const query = `UPDATE links SET click_count = click_count + 1 WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapError(op, "failed to update links table row", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}
