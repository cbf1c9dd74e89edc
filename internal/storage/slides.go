package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slides/internal/domain"

	"github.com/google/uuid"
)

// SlideStore implements domain.SlideStore over a SQL database.
type SlideStore struct {
	db *DB
}

func NewSlideStore(db *DB) *SlideStore {
	return &SlideStore{db: db}
}

func (s *SlideStore) Close() error {
	return s.db.Close()
}

func (s *SlideStore) exec(ctx context.Context, q queryer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.db.dialect.Rebind(query), args...)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const slideColumns = `id, background_color, background_image, transition_effect, transition_duration, auto_advance_seconds, created_at, updated_at`

const elementColumns = `id, slide_id, type, position_x, position_y, width, height, rotation, layer_order, display_order, content, source_url, ` +
	`entry_animation, entry_animation_duration, entry_animation_delay, exit_animation, exit_animation_duration, exit_animation_delay, created_at, updated_at`

// ─────────────────────────────────────────────────────────────
// Slides
// ─────────────────────────────────────────────────────────────

func (s *SlideStore) GetSlide(ctx context.Context, id string) (*domain.Slide, error) {
	sl := &domain.Slide{}
	err := s.db.conn.QueryRowContext(ctx, s.db.dialect.Rebind(`SELECT `+slideColumns+` FROM slides WHERE id = ?`), id).Scan(
		&sl.ID, &sl.Background.Color, &sl.Background.Image, &sl.TransitionEffect,
		&sl.TransitionDuration, &sl.AutoAdvanceSeconds, &sl.CreatedAt, &sl.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get slide %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get slide: %w", err)
	}
	elements, err := s.ListElements(ctx, id)
	if err != nil {
		return nil, err
	}
	sl.Elements = elements
	return sl, nil
}

// SaveSlide upserts the slide row. When sl.Elements is non-nil the slide's
// elements are replaced by it in the same transaction; elements without an id
// are given one.
func (s *SlideStore) SaveSlide(ctx context.Context, sl *domain.Slide) error {
	if err := sl.Background.Validate(); err != nil {
		return err
	}
	if sl.ID == "" {
		sl.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var created time.Time
	err = tx.QueryRowContext(ctx, s.db.dialect.Rebind(`SELECT created_at FROM slides WHERE id = ?`), sl.ID).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		sl.CreatedAt, sl.UpdatedAt = now, now
		_, err = s.exec(ctx, tx, `INSERT INTO slides (`+slideColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sl.ID, sl.Background.Color, sl.Background.Image, sl.TransitionEffect,
			sl.TransitionDuration, sl.AutoAdvanceSeconds, sl.CreatedAt, sl.UpdatedAt,
		)
	case err == nil:
		sl.CreatedAt, sl.UpdatedAt = created, now
		_, err = s.exec(ctx, tx, `UPDATE slides SET background_color = ?, background_image = ?, transition_effect = ?, transition_duration = ?, auto_advance_seconds = ?, updated_at = ? WHERE id = ?`,
			sl.Background.Color, sl.Background.Image, sl.TransitionEffect,
			sl.TransitionDuration, sl.AutoAdvanceSeconds, sl.UpdatedAt, sl.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("save slide: %w", err)
	}

	if sl.Elements != nil {
		if _, err := s.exec(ctx, tx, `DELETE FROM slide_elements WHERE slide_id = ?`, sl.ID); err != nil {
			return fmt.Errorf("delete elements: %w", err)
		}
		for i := range sl.Elements {
			el := &sl.Elements[i]
			if err := el.Validate(); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			if el.SlideElementID == "" {
				el.SlideElementID = uuid.New().String()
			}
			if el.CreatedAt.IsZero() {
				el.CreatedAt = now
			}
			el.UpdatedAt = now
			if err := s.insertElement(ctx, tx, sl.ID, el); err != nil {
				return fmt.Errorf("insert element %s: %w", el.SlideElementID, err)
			}
		}
	}
	return tx.Commit()
}

// ─────────────────────────────────────────────────────────────
// Elements
// ─────────────────────────────────────────────────────────────

// ListElements returns the slide's elements bottom to top.
func (s *SlideStore) ListElements(ctx context.Context, slideID string) ([]domain.SlideElement, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.dialect.Rebind(
		`SELECT `+elementColumns+` FROM slide_elements WHERE slide_id = ? ORDER BY layer_order ASC, created_at ASC`), slideID)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	elements := []domain.SlideElement{}
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		elements = append(elements, el)
	}
	return elements, rows.Err()
}

func (s *SlideStore) CreateSlideElement(ctx context.Context, slideID string, payload domain.SlideElement) (*domain.SlideElement, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if err := s.slideExists(ctx, slideID); err != nil {
		return nil, err
	}
	el := payload
	el.SlideElementID = uuid.New().String()
	el.CreatedAt = time.Now().UTC()
	el.UpdatedAt = el.CreatedAt
	if err := s.insertElement(ctx, s.db.conn, slideID, &el); err != nil {
		return nil, fmt.Errorf("create element: %w", err)
	}
	return &el, nil
}

func (s *SlideStore) UpdateSlideElement(ctx context.Context, slideID, elementID string, payload domain.SlideElement) (*domain.SlideElement, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var created time.Time
	err := s.db.conn.QueryRowContext(ctx, s.db.dialect.Rebind(
		`SELECT created_at FROM slide_elements WHERE id = ? AND slide_id = ?`), elementID, slideID).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update element %s: %w", elementID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}

	el := payload
	el.SlideElementID = elementID
	el.CreatedAt = created
	el.UpdatedAt = time.Now().UTC()
	ed, edur, edel := animationColumns(el.EntryAnimation, el.EntryAnimationDuration, el.EntryAnimationDelay)
	xd, xdur, xdel := animationColumns(el.ExitAnimation, el.ExitAnimationDuration, el.ExitAnimationDelay)
	_, err = s.exec(ctx, s.db.conn,
		`UPDATE slide_elements SET type = ?, position_x = ?, position_y = ?, width = ?, height = ?, rotation = ?, layer_order = ?, display_order = ?, content = ?, source_url = ?, `+
			`entry_animation = ?, entry_animation_duration = ?, entry_animation_delay = ?, exit_animation = ?, exit_animation_duration = ?, exit_animation_delay = ?, updated_at = ? WHERE id = ?`,
		string(el.SlideElementType), el.PositionX, el.PositionY, el.Width, el.Height, el.Rotation, el.LayerOrder, el.DisplayOrder,
		nullString(el.Content), nullString(el.SourceURL), ed, edur, edel, xd, xdur, xdel, el.UpdatedAt, elementID,
	)
	if err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}
	return &el, nil
}

func (s *SlideStore) DeleteSlideElement(ctx context.Context, slideID, elementID string) error {
	res, err := s.exec(ctx, s.db.conn, `DELETE FROM slide_elements WHERE id = ? AND slide_id = ?`, elementID, slideID)
	if err != nil {
		return fmt.Errorf("delete element: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete element %s: %w", elementID, domain.ErrNotFound)
	}
	return nil
}

func (s *SlideStore) slideExists(ctx context.Context, id string) error {
	var one int
	err := s.db.conn.QueryRowContext(ctx, s.db.dialect.Rebind(`SELECT 1 FROM slides WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("slide %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup slide: %w", err)
	}
	return nil
}

func (s *SlideStore) insertElement(ctx context.Context, q queryer, slideID string, el *domain.SlideElement) error {
	ed, edur, edel := animationColumns(el.EntryAnimation, el.EntryAnimationDuration, el.EntryAnimationDelay)
	xd, xdur, xdel := animationColumns(el.ExitAnimation, el.ExitAnimationDuration, el.ExitAnimationDelay)
	_, err := s.exec(ctx, q,
		`INSERT INTO slide_elements (`+elementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		el.SlideElementID, slideID, string(el.SlideElementType), el.PositionX, el.PositionY, el.Width, el.Height, el.Rotation,
		el.LayerOrder, el.DisplayOrder, nullString(el.Content), nullString(el.SourceURL),
		ed, edur, edel, xd, xdur, xdel, el.CreatedAt, el.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElement(r rowScanner) (domain.SlideElement, error) {
	var (
		el                   domain.SlideElement
		slideID, typ         string
		content, src         sql.NullString
		entry, exit          sql.NullString
		entryDur, entryDelay sql.NullFloat64
		exitDur, exitDelay   sql.NullFloat64
	)
	err := r.Scan(&el.SlideElementID, &slideID, &typ, &el.PositionX, &el.PositionY, &el.Width, &el.Height, &el.Rotation,
		&el.LayerOrder, &el.DisplayOrder, &content, &src,
		&entry, &entryDur, &entryDelay, &exit, &exitDur, &exitDelay, &el.CreatedAt, &el.UpdatedAt)
	if err != nil {
		return el, err
	}
	el.SlideElementType = domain.ElementType(typ)
	el.Content = stringPtr(content)
	el.SourceURL = stringPtr(src)
	el.EntryAnimation, el.EntryAnimationDuration, el.EntryAnimationDelay = stringPtr(entry), floatPtr(entryDur), floatPtr(entryDelay)
	el.ExitAnimation, el.ExitAnimationDuration, el.ExitAnimationDelay = stringPtr(exit), floatPtr(exitDur), floatPtr(exitDelay)
	return el, nil
}

func animationColumns(name *string, duration, delay *float64) (sql.NullString, sql.NullFloat64, sql.NullFloat64) {
	return nullString(name), nullFloat(duration), nullFloat(delay)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}
