package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectTaxa = `SELECT taxon_id, name, description, data_type, freeform, one_per_engagement, position, filter_type
FROM taxa`

// ListTaxa returns every taxon in ascending position order.
func (b *Backend) ListTaxa(ctx context.Context) ([]types.Taxon, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.listLocked(ctx, b.db)
}

// GetTaxon retrieves a taxon by ID.
// Returns ErrInvalidID if id is not positive, ErrNotFound if not found.
func (b *Backend) GetTaxon(ctx context.Context, id int64) (types.Taxon, error) {
	if id <= 0 {
		return types.Taxon{}, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Taxon{}, types.ErrDetached
	}
	return b.getLocked(ctx, b.db, id)
}

// CreateTaxon validates the draft, stores it at the end of the order, and
// returns the stored taxon. Capability-controlled fields are normalized for
// the draft's data type before validation.
// Returns FieldErrors (errors.Is ErrValidation) for an invalid draft and
// ErrDuplicateName if another taxon already uses the name.
func (b *Backend) CreateTaxon(ctx context.Context, draft types.TaxonDraft) (types.Taxon, error) {
	t := draft.Taxon()
	if err := prepare(&t); err != nil {
		return types.Taxon{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Taxon{}, types.ErrDetached
	}
	if err := b.checkNameLocked(ctx, t.Name, 0); err != nil {
		return types.Taxon{}, err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Taxon{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM taxa").Scan(&t.Position); err != nil {
		return types.Taxon{}, fmt.Errorf("counting taxa: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO taxa (name, description, data_type, freeform, one_per_engagement, position, filter_type)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, string(t.DataType), t.Freeform, t.OnePerEngagement, t.Position, string(t.FilterType),
	)
	if err != nil {
		return types.Taxon{}, fmt.Errorf("inserting taxon: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return types.Taxon{}, fmt.Errorf("reading taxon id: %w", err)
	}
	if err := insertPresets(tx, t.ID, t.PresetValues); err != nil {
		return types.Taxon{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Taxon{}, fmt.Errorf("committing taxon: %w", err)
	}

	if err := b.persistTaxaJSONL(); err != nil {
		return types.Taxon{}, fmt.Errorf("persisting %s: %w", taxaJSONL, err)
	}
	return b.getLocked(ctx, b.db, t.ID)
}

// UpdateTaxon replaces every editable field of the taxon with the given ID.
// The stored position is kept; the position in taxon is ignored.
// Returns ErrNotFound if no taxon exists with that ID, FieldErrors for an
// invalid record, and ErrDuplicateName for a name clash.
func (b *Backend) UpdateTaxon(ctx context.Context, id int64, taxon types.Taxon) (types.Taxon, error) {
	if id <= 0 {
		return types.Taxon{}, types.ErrInvalidID
	}
	t := taxon.Clone()
	t.ID = id
	if err := prepare(&t); err != nil {
		return types.Taxon{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Taxon{}, types.ErrDetached
	}
	if _, err := b.getLocked(ctx, b.db, id); err != nil {
		return types.Taxon{}, err
	}
	if err := b.checkNameLocked(ctx, t.Name, id); err != nil {
		return types.Taxon{}, err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Taxon{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE taxa SET name = ?, description = ?, data_type = ?, freeform = ?, one_per_engagement = ?, filter_type = ?
         WHERE taxon_id = ?`,
		t.Name, t.Description, string(t.DataType), t.Freeform, t.OnePerEngagement, string(t.FilterType), id,
	); err != nil {
		return types.Taxon{}, fmt.Errorf("updating taxon %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM preset_values WHERE taxon_id = ?", id); err != nil {
		return types.Taxon{}, fmt.Errorf("clearing presets for taxon %d: %w", id, err)
	}
	if err := insertPresets(tx, id, t.PresetValues); err != nil {
		return types.Taxon{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Taxon{}, fmt.Errorf("committing taxon %d: %w", id, err)
	}

	if err := b.persistTaxaJSONL(); err != nil {
		return types.Taxon{}, fmt.Errorf("persisting %s: %w", taxaJSONL, err)
	}
	return b.getLocked(ctx, b.db, id)
}

// DeleteTaxon removes a taxon and shifts every later taxon up by one
// position so the order stays contiguous.
// Returns ErrNotFound if no taxon exists with that ID.
func (b *Backend) DeleteTaxon(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	existing, err := b.getLocked(ctx, b.db, id)
	if err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM preset_values WHERE taxon_id = ?", id); err != nil {
		return fmt.Errorf("deleting presets for taxon %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM taxa WHERE taxon_id = ?", id); err != nil {
		return fmt.Errorf("deleting taxon %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE taxa SET position = position - 1 WHERE position > ?", existing.Position,
	); err != nil {
		return fmt.Errorf("closing position gap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing deletion of taxon %d: %w", id, err)
	}

	if err := b.persistTaxaJSONL(); err != nil {
		return fmt.Errorf("persisting %s: %w", taxaJSONL, err)
	}
	return nil
}

// ReorderTaxa assigns position i to ids[i] and returns the reordered list.
// Returns ErrInvalidOrder unless ids names every stored taxon exactly once.
func (b *Backend) ReorderTaxa(ctx context.Context, ids []int64) ([]types.Taxon, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	current, err := b.listLocked(ctx, b.db)
	if err != nil {
		return nil, err
	}
	if !sameIDSet(types.IDs(current), ids) {
		return nil, types.ErrInvalidOrder
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for pos, id := range ids {
		if _, err := tx.ExecContext(ctx, "UPDATE taxa SET position = ? WHERE taxon_id = ?", pos, id); err != nil {
			return nil, fmt.Errorf("positioning taxon %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reorder: %w", err)
	}

	if err := b.persistTaxaJSONL(); err != nil {
		return nil, fmt.Errorf("persisting %s: %w", taxaJSONL, err)
	}
	return b.listLocked(ctx, b.db)
}

// prepare trims, normalizes, and validates a taxon before it is written.
func prepare(t *types.Taxon) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)
	if _, err := types.ParseDataType(string(t.DataType)); err == nil {
		t.Normalize()
	}
	return types.ValidateTaxon(*t).Err()
}

// checkNameLocked returns ErrDuplicateName if a taxon other than exceptID
// already uses name.
func (b *Backend) checkNameLocked(ctx context.Context, name string, exceptID int64) error {
	var dupID int64
	err := b.db.QueryRowContext(ctx,
		"SELECT taxon_id FROM taxa WHERE name = ? AND taxon_id != ?", name, exceptID,
	).Scan(&dupID)
	if err == nil {
		return types.ErrDuplicateName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking taxon name uniqueness: %w", err)
	}
	return nil
}

func (b *Backend) getLocked(ctx context.Context, q querier, id int64) (types.Taxon, error) {
	row := q.QueryRowContext(ctx, selectTaxa+" WHERE taxon_id = ?", id)
	t, err := hydrateTaxon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Taxon{}, types.ErrNotFound
		}
		return types.Taxon{}, fmt.Errorf("getting taxon %d: %w", id, err)
	}
	presets, err := loadPresets(ctx, q, "WHERE taxon_id = ?", id)
	if err != nil {
		return types.Taxon{}, err
	}
	t.PresetValues = presets[id]
	if t.PresetValues == nil {
		t.PresetValues = []string{}
	}
	return t, nil
}

func (b *Backend) listLocked(ctx context.Context, q querier) ([]types.Taxon, error) {
	rows, err := q.QueryContext(ctx, selectTaxa+" ORDER BY position ASC, taxon_id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing taxa: %w", err)
	}
	defer rows.Close()

	taxa := []types.Taxon{}
	for rows.Next() {
		t, err := hydrateTaxon(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating taxon: %w", err)
		}
		taxa = append(taxa, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating taxa: %w", err)
	}
	rows.Close()

	presets, err := loadPresets(ctx, q, "")
	if err != nil {
		return nil, err
	}
	for i := range taxa {
		taxa[i].PresetValues = presets[taxa[i].ID]
		if taxa[i].PresetValues == nil {
			taxa[i].PresetValues = []string{}
		}
	}
	return taxa, nil
}

// loadPresets returns preset values grouped by taxon ID, in ordinal order.
func loadPresets(ctx context.Context, q querier, where string, args ...any) (map[int64][]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT taxon_id, value FROM preset_values "+where+" ORDER BY taxon_id, ordinal ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("listing preset values: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, fmt.Errorf("scanning preset value: %w", err)
		}
		out[id] = append(out[id], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating preset values: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// hydrateTaxon converts a taxa row into a types.Taxon without presets.
func hydrateTaxon(s scanner) (types.Taxon, error) {
	var (
		t          types.Taxon
		dataType   string
		filterType string
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &dataType, &t.Freeform, &t.OnePerEngagement, &t.Position, &filterType); err != nil {
		return types.Taxon{}, err
	}
	t.DataType = types.DataType(dataType)
	t.FilterType = types.FilterType(filterType)
	return t, nil
}

// sameIDSet reports whether ids contains exactly the IDs in want, each once.
func sameIDSet(want, ids []int64) bool {
	if len(want) != len(ids) {
		return false
	}
	seen := make(map[int64]bool, len(want))
	for _, id := range want {
		seen[id] = false
	}
	for _, id := range ids {
		used, ok := seen[id]
		if !ok || used {
			return false
		}
		seen[id] = true
	}
	return true
}
