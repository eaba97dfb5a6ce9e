package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

func TestJSONLInitializedEmpty(t *testing.T) {
	b := newTestBackend(t)

	info, err := os.Stat(filepath.Join(b.DataDir(), taxaJSONL))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestTaxaPersistedToJSONL(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.CreateTaxon(ctx, types.TaxonDraft{
		Name:         "Colour",
		DataType:     types.DataTypeText,
		PresetValues: []string{"Red", "Blue"},
	})
	require.NoError(t, err)
	mustCreate(t, b, "Budget", types.DataTypeNumber)

	records, err := readJSONL(filepath.Join(b.DataDir(), taxaJSONL))
	require.NoError(t, err)
	require.Len(t, records, 2)

	var rec taxonRecord
	require.NoError(t, json.Unmarshal(records[0], &rec))
	assert.Equal(t, "Colour", rec.Name)
	assert.Equal(t, []string{"Red", "Blue"}, rec.PresetValues)
	assert.Equal(t, 0, rec.Position)
	assert.False(t, strings.Contains(string(records[0]), "\n  "), "JSONL must not be pretty printed")
}

func TestJSONLPersistenceAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	a, err := b.CreateTaxon(ctx, types.NewDraft("A", types.DataTypeText))
	require.NoError(t, err)
	c, err := b.CreateTaxon(ctx, types.NewDraft("C", types.DataTypeEmail))
	require.NoError(t, err)
	_, err = b.ReorderTaxa(ctx, []int64{c.ID, a.ID})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(cfg))
	defer b2.Detach()

	taxa, err := b2.ListTaxa(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID}, types.IDs(taxa))

	// IDs keep increasing after a restart.
	d, err := b2.CreateTaxon(ctx, types.NewDraft("D", types.DataTypeText))
	require.NoError(t, err)
	assert.Greater(t, d.ID, c.ID)
	assert.Equal(t, 2, d.Position)
}

func TestJSONLLoadSkipsBadLines(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		`{"id":1,"name":"Colour","data_type":"text","freeform":true,"preset_values":[],"position":4}`,
		``,
		`not json`,
		`{"id":2,"name":"Mystery","data_type":"colour","position":0}`,
		`{"id":3,"name":"Colour","data_type":"text","position":5}`,
		`{"id":4,"name":"Open","data_type":"boolean","freeform":true,"position":7,"future_field":1}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, taxaJSONL), []byte(content), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	taxa, err := b.ListTaxa(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 4}, types.IDs(taxa))
	assert.Equal(t, 0, taxa[0].Position, "positions are renumbered on load")
	assert.Equal(t, 1, taxa[1].Position)
	assert.False(t, taxa[1].Freeform, "boolean taxa are normalized on load")
}

func TestWriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	require.NoError(t, writeJSONL(path, []json.RawMessage{
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`{"b":2}`),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}
