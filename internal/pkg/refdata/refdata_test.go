package refdata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/pkg/refdata"
)

func TestLoad_EmbeddedSeed(t *testing.T) {
	store, err := refdata.Load("")
	require.NoError(t, err)

	crimes, err := store.List(domain.RefCrimeTypes)
	require.NoError(t, err)
	assert.NotEmpty(t, crimes)
	assert.True(t, store.Contains(domain.RefCrimeTypes, "kidnapping"))
	assert.True(t, store.Contains(domain.RefStates, "Akwa Ibom"))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranks:\n  - id: inspector\n    name: Inspector\n"), 0o600))

	store, err := refdata.Load(path)
	require.NoError(t, err)

	ranks, err := store.List(domain.RefRanks)
	require.NoError(t, err)
	assert.Equal(t, []domain.ReferenceItem{{ID: "inspector", Name: "Inspector"}}, ranks)

	departments, err := store.List(domain.RefDepartments)
	require.NoError(t, err)
	assert.Empty(t, departments)

	_, err = refdata.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	_, err := refdata.Parse([]byte("crime_types: [oops"))
	assert.Error(t, err)
}

func TestStore_Mutations(t *testing.T) {
	store, err := refdata.Parse([]byte("crime_types:\n  - id: fraud\n    name: Fraud\n"))
	require.NoError(t, err)

	t.Run("Add Derives Slug", func(t *testing.T) {
		item, err := store.Add(domain.RefCrimeTypes, domain.ReferenceItem{Name: "Oil Bunkering & Theft"})
		require.NoError(t, err)
		assert.Equal(t, "oil-bunkering-theft", item.ID)
		assert.True(t, store.Contains(domain.RefCrimeTypes, "oil bunkering & theft"))
	})

	t.Run("Add Duplicate", func(t *testing.T) {
		_, err := store.Add(domain.RefCrimeTypes, domain.ReferenceItem{Name: "FRAUD"})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("Add Blank", func(t *testing.T) {
		_, err := store.Add(domain.RefCrimeTypes, domain.ReferenceItem{Name: "  "})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Unknown List", func(t *testing.T) {
		_, err := store.List("weapons")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Update", func(t *testing.T) {
		item, err := store.Update(domain.RefCrimeTypes, "fraud", domain.ReferenceItem{Name: "Advance Fee Fraud"})
		require.NoError(t, err)
		assert.Equal(t, "fraud", item.ID)
		assert.True(t, store.Contains(domain.RefCrimeTypes, "Advance Fee Fraud"))

		_, err = store.Update(domain.RefCrimeTypes, "missing", domain.ReferenceItem{Name: "X"})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(domain.RefCrimeTypes, "fraud"))
		assert.False(t, store.Contains(domain.RefCrimeTypes, "Advance Fee Fraud"))
		assert.True(t, domain.IsNotFound(store.Delete(domain.RefCrimeTypes, "fraud")))
	})

	t.Run("List Is A Copy", func(t *testing.T) {
		list, err := store.List(domain.RefCrimeTypes)
		require.NoError(t, err)
		list[0].Name = "Tampered"
		assert.False(t, store.Contains(domain.RefCrimeTypes, "Tampered"))
	})
}
