package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the relational access layer for content records. Find methods
// return (nil, nil) when nothing matches; GetByID returns ErrNotFound.
type Store interface {
	List(ctx context.Context, d *Descriptor) ([]Record, error)
	GetByID(ctx context.Context, d *Descriptor, id int64) (*Record, error)
	FindByCategory(ctx context.Context, d *Descriptor, category string) (*Record, error)
	FindHero(ctx context.Context, d *Descriptor) (*Record, error)
	Insert(ctx context.Context, d *Descriptor, rec *Record) error
	Update(ctx context.Context, d *Descriptor, id int64, fields map[string]interface{}) error
	SetActive(ctx context.Context, d *Descriptor, id int64, active bool) error
	Delete(ctx context.Context, d *Descriptor, id int64) error
	AttachmentsByParent(ctx context.Context, d *Descriptor, parentID int64) ([]Attachment, error)
	ReplaceAttachments(ctx context.Context, d *Descriptor, parentID int64, atts []Attachment) error
	DeleteAttachments(ctx context.Context, d *Descriptor, parentID int64) error
}

// SQLStore implements Store on a sqlx Postgres pool. Table names come
// from the static descriptor list, never from request input.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a Store backed by the given pool.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) List(ctx context.Context, d *Descriptor) ([]Record, error) {
	dir := "DESC"
	if d.OrderAsc {
		dir = "ASC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at %s, id %s",
		strings.Join(d.columns(), ", "), d.Table, dir, dir)

	records := []Record{}
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.Table, err)
	}

	if d.Mode == AttachmentMulti && len(records) > 0 {
		byParent, err := s.attachmentsByTable(ctx, d)
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Attachments = byParent[records[i].ID]
		}
	}

	return records, nil
}

func (s *SQLStore) GetByID(ctx context.Context, d *Descriptor, id int64) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1",
		strings.Join(d.columns(), ", "), d.Table)

	var rec Record
	if err := s.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching %s id %d: %w", d.Table, id, err)
	}

	if d.Mode == AttachmentMulti {
		atts, err := s.AttachmentsByParent(ctx, d, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Attachments = atts
	}

	return &rec, nil
}

func (s *SQLStore) FindByCategory(ctx context.Context, d *Descriptor, category string) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE category = $1 LIMIT 1",
		strings.Join(d.columns(), ", "), d.Table)

	var rec Record
	if err := s.db.GetContext(ctx, &rec, query, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding %s by category %s: %w", d.Table, category, err)
	}
	return &rec, nil
}

func (s *SQLStore) FindHero(ctx context.Context, d *Descriptor) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE slot = $1 LIMIT 1",
		strings.Join(d.columns(), ", "), d.Table)

	var rec Record
	if err := s.db.GetContext(ctx, &rec, query, SlotHero); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding %s hero record: %w", d.Table, err)
	}
	return &rec, nil
}

func (s *SQLStore) Insert(ctx context.Context, d *Descriptor, rec *Record) error {
	cols := []string{"title", "description"}
	args := []interface{}{rec.Title, rec.Description}

	if d.HasPrice {
		cols = append(cols, "price")
		args = append(args, rec.Price)
	}
	if d.HasCategory {
		cols = append(cols, "category")
		args = append(args, rec.Category)
	}
	if d.HasSlot {
		cols = append(cols, "slot")
		args = append(args, rec.Slot)
	}
	if d.Mode == AttachmentSingle {
		cols = append(cols, "image_url", "remote_id")
		args = append(args, rec.ImageURL, rec.RemoteID)
	}
	cols = append(cols, "is_active")
	args = append(args, rec.IsActive)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id, created_at",
		d.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("inserting into %s: %w", d.Table, err)
	}
	return nil
}

// Update applies a partial update. fields keys are column names from the
// handler's fixed whitelist, never raw request keys.
func (s *SQLStore) Update(ctx context.Context, d *Descriptor, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	// Walk the descriptor's column order so the statement is stable.
	var sets []string
	var args []interface{}
	for _, col := range d.columns() {
		val, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		d.Table, strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s id %d: %w", d.Table, id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) SetActive(ctx context.Context, d *Descriptor, id int64, active bool) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = $1 WHERE id = $2", d.Table)

	result, err := s.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("toggling %s id %d: %w", d.Table, id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, d *Descriptor, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", d.Table)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting %s id %d: %w", d.Table, id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) AttachmentsByParent(ctx context.Context, d *Descriptor, parentID int64) ([]Attachment, error) {
	query := fmt.Sprintf("SELECT id, parent_id, url, remote_id FROM %s WHERE parent_id = $1 ORDER BY id",
		d.AttachmentTable)

	atts := []Attachment{}
	if err := s.db.SelectContext(ctx, &atts, query, parentID); err != nil {
		return nil, fmt.Errorf("fetching attachments for %s id %d: %w", d.Table, parentID, err)
	}
	return atts, nil
}

// ReplaceAttachments wholesale-replaces the parent's attachment rows.
// Remote media cleanup is the caller's responsibility.
func (s *SQLStore) ReplaceAttachments(ctx context.Context, d *Descriptor, parentID int64, atts []Attachment) error {
	if err := s.DeleteAttachments(ctx, d, parentID); err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO %s (parent_id, url, remote_id) VALUES ($1, $2, $3) RETURNING id",
		d.AttachmentTable)
	for i := range atts {
		atts[i].ParentID = parentID
		if err := s.db.QueryRowxContext(ctx, query, parentID, atts[i].URL, atts[i].RemoteID).Scan(&atts[i].ID); err != nil {
			return fmt.Errorf("inserting attachment for %s id %d: %w", d.Table, parentID, err)
		}
	}
	return nil
}

func (s *SQLStore) DeleteAttachments(ctx context.Context, d *Descriptor, parentID int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE parent_id = $1", d.AttachmentTable)
	if _, err := s.db.ExecContext(ctx, query, parentID); err != nil {
		return fmt.Errorf("deleting attachments for %s id %d: %w", d.Table, parentID, err)
	}
	return nil
}

func (s *SQLStore) attachmentsByTable(ctx context.Context, d *Descriptor) (map[int64][]Attachment, error) {
	query := fmt.Sprintf("SELECT id, parent_id, url, remote_id FROM %s ORDER BY id", d.AttachmentTable)

	atts := []Attachment{}
	if err := s.db.SelectContext(ctx, &atts, query); err != nil {
		return nil, fmt.Errorf("fetching attachments from %s: %w", d.AttachmentTable, err)
	}

	byParent := make(map[int64][]Attachment, len(atts))
	for _, a := range atts {
		byParent[a.ParentID] = append(byParent[a.ParentID], a)
	}
	return byParent, nil
}
