package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
)

const (
	integrityViolationClass = "23"
	defaultQueryTimeout     = 5 * time.Second
)

// bookmarkColumns lists the table columns in scan order. "desc" is a reserved word and must stay quoted.
const bookmarkColumns = `id, title, url, "desc", rating`

func isConstraintViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.SQLState(), integrityViolationClass)
}

type bookmarkDB struct {
	ID     uuid.UUID `db:"id"`
	Title  string    `db:"title"`
	URL    string    `db:"url"`
	Desc   string    `db:"desc"`
	Rating int       `db:"rating"`
}

func (b *bookmarkDB) toEntity() *entity.Bookmark {
	return &entity.Bookmark{
		ID:     b.ID,
		Title:  b.Title,
		URL:    b.URL,
		Desc:   b.Desc,
		Rating: b.Rating,
	}
}

// Option configures a BookmarkRepository.
type Option func(*BookmarkRepository)

// WithQueryTimeout bounds every statement issued by the repository.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *BookmarkRepository) {
		if d > 0 {
			r.queryTimeout = d
		}
	}
}

type BookmarkRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewBookmarkRepository(db *sqlx.DB, opts ...Option) *BookmarkRepository {
	r := &BookmarkRepository{
		db:           db,
		queryTimeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *BookmarkRepository) List(ctx context.Context) ([]entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.List"
	const query = `SELECT ` + bookmarkColumns + ` FROM bookmarks`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var rows []bookmarkDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select from bookmarks table: %w", op, err)
	}

	bookmarks := make([]entity.Bookmark, 0, len(rows))
	for i := range rows {
		bookmarks = append(bookmarks, *rows[i].toEntity())
	}

	return bookmarks, nil
}

func (r *BookmarkRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.GetByID"
	const query = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var bookmark bookmarkDB

	if err := r.db.GetContext(ctx, &bookmark, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from bookmarks table: %w", op, err)
	}

	return bookmark.toEntity(), nil
}

func (r *BookmarkRepository) Insert(ctx context.Context, draft entity.BookmarkDraft) (*entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.Insert"
	const query = `INSERT INTO bookmarks(title, url, "desc", rating) VALUES ($1, $2, $3, $4) RETURNING ` + bookmarkColumns

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var bookmark bookmarkDB

	if err := r.db.GetContext(ctx, &bookmark, query, draft.Title, draft.URL, draft.Desc, draft.Rating); err != nil {
		if isConstraintViolationError(err) {
			return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrConstraintViolation, err)
		}

		return nil, fmt.Errorf("%s: failed to insert into bookmarks table: %w", op, err)
	}

	return bookmark.toEntity(), nil
}

// Update changes only the fields set in patch and returns the number of affected rows.
func (r *BookmarkRepository) Update(ctx context.Context, id uuid.UUID, patch entity.BookmarkPatch) (int64, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.Update"

	if patch.IsEmpty() {
		return 0, fmt.Errorf("%s: %w", op, entity.ErrEmptyPatch)
	}

	query, args := buildUpdateQuery(id, patch)

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolationError(err) {
			return 0, fmt.Errorf("%s: %w: %w", op, entity.ErrConstraintViolation, err)
		}

		return 0, fmt.Errorf("%s: failed to update bookmarks table row: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return rowsAffected, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.Delete"
	const query = `DELETE FROM bookmarks WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete from bookmarks table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return rowsAffected, nil
}

// buildUpdateQuery renders an UPDATE statement whose SET clause covers the non-nil patch fields,
// always in the order title, url, desc, rating. The id is the last placeholder.
func buildUpdateQuery(id uuid.UUID, patch entity.BookmarkPatch) (string, []any) {
	var (
		sets []string
		args []any
	)

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.URL != nil {
		set("url", *patch.URL)
	}
	if patch.Desc != nil {
		set(`"desc"`, *patch.Desc)
	}
	if patch.Rating != nil {
		set("rating", *patch.Rating)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE bookmarks SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	return query, args
}
