package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
)

const columns = `id, owner_user_id, owner_email, owner_name, image_url, extracted_number,
       submitted_at, to_number, carrier, is_spam, is_deleted, deleted_at, analyzed_at`

type ScreenshotRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewScreenshotRepository(db *sql.DB, d Dialect) *ScreenshotRepository {
	return &ScreenshotRepository{db: db, dialect: d}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScreenshot(row scanner) (*domain.Screenshot, error) {
	var s domain.Screenshot
	var deletedAt sql.NullTime
	if err := row.Scan(
		&s.ID, &s.Owner.UserID, &s.Owner.Email, &s.Owner.Name, &s.ImageURL, &s.ExtractedNumber,
		&s.SubmittedAt, &s.ToNumber, &s.Carrier, &s.IsSpam, &s.IsDeleted, &deletedAt, &s.AnalyzedAt,
	); err != nil {
		return nil, err
	}
	s.SubmittedAt = s.SubmittedAt.UTC()
	s.AnalyzedAt = s.AnalyzedAt.UTC()
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		s.DeletedAt = &t
	}
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Create inserts a new record. Records are write-once apart from the
// deletion flags.
func (r *ScreenshotRepository) Create(ctx context.Context, s *domain.Screenshot) error {
	const q = `
INSERT INTO analyzed_screenshots
(id, owner_user_id, owner_email, owner_name, image_url, extracted_number,
 submitted_at, to_number, carrier, is_spam, is_deleted, deleted_at, analyzed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`

	submitted := s.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	analyzed := s.AnalyzedAt
	if analyzed.IsZero() {
		analyzed = submitted
	}

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(q),
		s.ID, s.Owner.UserID, s.Owner.Email, s.Owner.Name, s.ImageURL,
		orDefault(s.ExtractedNumber, domain.NumberNotFound),
		submitted.UTC(), orDefault(s.ToNumber, domain.Unknown), orDefault(s.Carrier, domain.Unknown),
		s.IsSpam, s.IsDeleted, nullTime(s.DeletedAt), analyzed.UTC(),
	)
	if err != nil {
		return wrapErr("create screenshot", err)
	}
	return nil
}

func (r *ScreenshotRepository) Get(ctx context.Context, id domain.ID) (*domain.Screenshot, error) {
	q := `SELECT ` + columns + ` FROM analyzed_screenshots WHERE id=?`
	s, err := scanScreenshot(r.db.QueryRowContext(ctx, r.dialect.Rebind(q), id))
	if err != nil {
		return nil, wrapErr("get screenshot", err)
	}
	return s, nil
}

func where(f domain.Query) (string, []any) {
	conds := []string{"is_deleted=?"}
	args := []any{f.Deleted}
	if f.OwnerUserID != "" {
		conds = append(conds, "owner_user_id=?")
		args = append(args, f.OwnerUserID)
	}
	if f.OwnerEmail != "" {
		conds = append(conds, "owner_email=?")
		args = append(args, f.OwnerEmail)
	}
	if f.OwnerName != "" {
		conds = append(conds, "owner_name=?")
		args = append(args, f.OwnerName)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *ScreenshotRepository) List(ctx context.Context, f domain.Query) ([]*domain.Screenshot, error) {
	clause, args := where(f)
	q := `SELECT ` + columns + ` FROM analyzed_screenshots` + clause

	switch f.Sort {
	case domain.SortDeleted:
		q += ` ORDER BY deleted_at DESC, id DESC`
	default:
		q += ` ORDER BY submitted_at DESC, id DESC`
	}
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, max(f.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, wrapErr("list screenshots", err)
	}
	defer rows.Close()

	out := []*domain.Screenshot{}
	for rows.Next() {
		s, err := scanScreenshot(rows)
		if err != nil {
			return nil, wrapErr("scan screenshot", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list screenshots", err)
	}
	return out, nil
}

func (r *ScreenshotRepository) Count(ctx context.Context, f domain.Query) (int64, error) {
	clause, args := where(f)
	var n int64
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM analyzed_screenshots`+clause), args...).Scan(&n); err != nil {
		return 0, wrapErr("count screenshots", err)
	}
	return n, nil
}

// SetDeleted writes both deletion columns in one statement. MySQL reports
// zero affected rows for unchanged values, so existence is checked by
// reading the row back instead.
func (r *ScreenshotRepository) SetDeleted(ctx context.Context, s *domain.Screenshot) (*domain.Screenshot, error) {
	const q = `UPDATE analyzed_screenshots SET is_deleted=?, deleted_at=? WHERE id=?`

	deletedAt := nullTime(s.DeletedAt)
	if !s.IsDeleted {
		deletedAt = sql.NullTime{}
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(q), s.IsDeleted, deletedAt, s.ID); err != nil {
		return nil, wrapErr("update screenshot", err)
	}
	return r.Get(ctx, s.ID)
}

// Delete removes the row and returns it.
func (r *ScreenshotRepository) Delete(ctx context.Context, id domain.ID) (*domain.Screenshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin delete", err)
	}
	defer tx.Rollback() //nolint:errcheck

	s, err := scanScreenshot(tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+columns+` FROM analyzed_screenshots WHERE id=?`), id))
	if err != nil {
		return nil, wrapErr("get screenshot", err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM analyzed_screenshots WHERE id=?`), id); err != nil {
		return nil, wrapErr("delete screenshot", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit delete", err)
	}
	return s, nil
}
