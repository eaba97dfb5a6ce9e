package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// newTestBackend attaches a backend to a fresh temp directory and detaches it
// when the test ends.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func mustCreate(t *testing.T, b *Backend, name string, dt types.DataType) types.Taxon {
	t.Helper()
	tx, err := b.CreateTaxon(context.Background(), types.NewDraft(name, dt))
	require.NoError(t, err)
	return tx
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, dbFile))
	assert.NoError(t, err, "taxa.db not created")
	_, err = os.Stat(filepath.Join(tmpDir, taxaJSONL))
	assert.NoError(t, err, "taxa.jsonl not created")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "second Detach should be a no-op")

	_, err := b.ListTaxa(context.Background())
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestCreateTaxon(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	first := mustCreate(t, b, "Colour", types.DataTypeText)
	second := mustCreate(t, b, "Budget", types.DataTypeNumber)

	assert.Positive(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position, "new taxa are appended at the end")

	got, err := b.GetTaxon(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budget", got.Name)
	assert.Equal(t, []string{}, got.PresetValues)
}

func TestCreateTaxonBooleanNormalized(t *testing.T) {
	b := newTestBackend(t)

	got, err := b.CreateTaxon(context.Background(), types.TaxonDraft{
		Name:             "Accessible",
		DataType:         types.DataTypeBoolean,
		Freeform:         true,
		OnePerEngagement: false,
		PresetValues:     []string{"yes", "no"},
	})
	require.NoError(t, err)
	assert.False(t, got.Freeform)
	assert.True(t, got.OnePerEngagement)
	assert.Empty(t, got.PresetValues)
}

func TestCreateTaxonValidation(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.CreateTaxon(ctx, types.TaxonDraft{Name: "", DataType: types.DataTypeText, Freeform: true})
	require.ErrorIs(t, err, types.ErrValidation)
	var fe types.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.True(t, fe.Has(types.FieldName))

	_, err = b.CreateTaxon(ctx, types.TaxonDraft{Name: "Colour", DataType: "colour"})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = b.CreateTaxon(ctx, types.TaxonDraft{Name: "Colour", DataType: types.DataTypeText, Freeform: false})
	require.ErrorIs(t, err, types.ErrValidation)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, types.MsgPresetRequired, fe.Message(types.FieldPresetValues))
}

func TestCreateTaxonDuplicateName(t *testing.T) {
	b := newTestBackend(t)
	mustCreate(t, b, "Colour", types.DataTypeText)

	_, err := b.CreateTaxon(context.Background(), types.NewDraft("Colour", types.DataTypeNumber))
	assert.ErrorIs(t, err, types.ErrDuplicateName)
}

func TestUpdateTaxon(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	mustCreate(t, b, "First", types.DataTypeText)
	tx := mustCreate(t, b, "Colour", types.DataTypeText)

	tx.Freeform = false
	tx.PresetValues = []string{"Red", "Blue"}
	tx.Description = "  Primary colour  "
	tx.Position = 99

	got, err := b.UpdateTaxon(ctx, tx.ID, tx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Red", "Blue"}, got.PresetValues)
	assert.Equal(t, "Primary colour", got.Description)
	assert.Equal(t, 1, got.Position, "update must not move the taxon")

	// Preset order is preserved on replace.
	got.PresetValues = []string{"Blue", "Green"}
	got, err = b.UpdateTaxon(ctx, got.ID, got)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Green"}, got.PresetValues)
}

func TestUpdateTaxonErrors(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	a := mustCreate(t, b, "A", types.DataTypeText)
	mustCreate(t, b, "B", types.DataTypeText)

	_, err := b.UpdateTaxon(ctx, 999, a)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = b.UpdateTaxon(ctx, 0, a)
	assert.ErrorIs(t, err, types.ErrInvalidID)

	a.Name = "B"
	_, err = b.UpdateTaxon(ctx, a.ID, a)
	assert.ErrorIs(t, err, types.ErrDuplicateName)
}

func TestDeleteTaxonRepacksPositions(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	a := mustCreate(t, b, "A", types.DataTypeText)
	mid := mustCreate(t, b, "B", types.DataTypeText)
	c := mustCreate(t, b, "C", types.DataTypeText)

	_, err := b.UpdateTaxon(ctx, mid.ID, types.Taxon{
		Name: "B", DataType: types.DataTypeText, PresetValues: []string{"x"},
	})
	require.NoError(t, err)

	require.NoError(t, b.DeleteTaxon(ctx, mid.ID))

	taxa, err := b.ListTaxa(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID}, types.IDs(taxa))
	assert.Equal(t, 0, taxa[0].Position)
	assert.Equal(t, 1, taxa[1].Position)

	assert.ErrorIs(t, b.DeleteTaxon(ctx, mid.ID), types.ErrNotFound)
}

func TestReorderTaxa(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	one := mustCreate(t, b, "One", types.DataTypeText)
	two := mustCreate(t, b, "Two", types.DataTypeText)
	three := mustCreate(t, b, "Three", types.DataTypeText)

	got, err := b.ReorderTaxa(ctx, []int64{three.ID, one.ID, two.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{three.ID, one.ID, two.ID}, types.IDs(got))
	for i, tx := range got {
		assert.Equal(t, i, tx.Position)
	}

	tests := []struct {
		name string
		ids  []int64
	}{
		{"missing id", []int64{one.ID, two.ID}},
		{"duplicate id", []int64{one.ID, one.ID, two.ID}},
		{"unknown id", []int64{one.ID, two.ID, 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.ReorderTaxa(ctx, tt.ids)
			assert.ErrorIs(t, err, types.ErrInvalidOrder)
		})
	}
}
