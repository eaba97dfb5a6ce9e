package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// loadTaxaJSONL reads taxa.jsonl and inserts every record into SQLite in a
// single transaction. Malformed lines, records with an unknown data type, and
// records that violate constraints (such as a duplicate name) are skipped.
// Positions are renumbered after loading so the order stays contiguous even
// when the file was edited by hand.
func loadTaxaJSONL(db *sql.DB, dataDir string) error {
	records, err := readJSONL(filepath.Join(dataDir, taxaJSONL))
	if err != nil {
		return err
	}

	var taxa []types.Taxon
	for _, raw := range records {
		var rec taxonRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		dt, err := types.ParseDataType(rec.DataType)
		if err != nil || rec.ID <= 0 {
			continue
		}
		t := types.Taxon{
			ID:               rec.ID,
			Name:             rec.Name,
			Description:      rec.Description,
			DataType:         dt,
			Freeform:         rec.Freeform,
			OnePerEngagement: rec.OnePerEngagement,
			PresetValues:     rec.PresetValues,
			Position:         rec.Position,
			FilterType:       types.FilterType(rec.FilterType),
		}
		t.Normalize()
		taxa = append(taxa, t)
	}
	types.SortByPosition(taxa)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	position := 0
	for _, t := range taxa {
		t.Position = position
		if err := insertTaxon(tx, t); err != nil {
			continue
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertTaxon inserts a taxon row with its ID and its preset values.
func insertTaxon(tx *sql.Tx, t types.Taxon) error {
	_, err := tx.Exec(
		`INSERT INTO taxa (taxon_id, name, description, data_type, freeform, one_per_engagement, position, filter_type)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, string(t.DataType), t.Freeform, t.OnePerEngagement, t.Position, string(t.FilterType),
	)
	if err != nil {
		return err
	}
	return insertPresets(tx, t.ID, t.PresetValues)
}

// insertPresets writes the ordered preset list for a taxon.
func insertPresets(tx *sql.Tx, id int64, presets []string) error {
	for i, v := range presets {
		if _, err := tx.Exec(
			"INSERT INTO preset_values (taxon_id, ordinal, value) VALUES (?, ?, ?)",
			id, i, v,
		); err != nil {
			return fmt.Errorf("inserting preset %d for taxon %d: %w", i, id, err)
		}
	}
	return nil
}

// persistTaxaJSONL rewrites taxa.jsonl from SQLite in position order.
// The caller must hold b.mu.
func (b *Backend) persistTaxaJSONL() error {
	taxa, err := b.listLocked(context.Background(), b.db)
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(taxa))
	for _, t := range taxa {
		data, err := json.Marshal(taxonRecord{
			ID:               t.ID,
			Name:             t.Name,
			Description:      t.Description,
			DataType:         string(t.DataType),
			Freeform:         t.Freeform,
			OnePerEngagement: t.OnePerEngagement,
			PresetValues:     slices.Clone(t.PresetValues),
			Position:         t.Position,
			FilterType:       string(t.FilterType),
		})
		if err != nil {
			return fmt.Errorf("marshaling taxon %d: %w", t.ID, err)
		}
		records = append(records, data)
	}
	return writeJSONL(filepath.Join(b.config.DataDir, taxaJSONL), records)
}
