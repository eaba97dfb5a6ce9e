package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taxa/pkg/sqlite"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

func TestNewBackendLifecycle(t *testing.T) {
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	ctx := context.Background()
	created, err := b.CreateTaxon(ctx, types.NewDraft("Colour", types.DataTypeText))
	require.NoError(t, err)
	assert.Equal(t, 0, created.Position)

	require.NoError(t, b.Detach())
	_, err = b.ListTaxa(ctx)
	assert.ErrorIs(t, err, types.ErrDetached)
}
