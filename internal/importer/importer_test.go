package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/catalog"
)

func setupCatalog(t *testing.T) *catalog.SQLiteRepository {
	repo, err := catalog.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func writeDoc(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const goodDoc = `{
	"schema_version": 1,
	"parts": [
		{
			"id": "water_pump",
			"name": "Water Pump",
			"description": "Mechanical coolant pump",
			"category": "cooling",
			"attributes": {"bolt_torque_nm": "25"},
			"cross_refs": ["GM-12456113"]
		},
		{"id": "thermo", "name": "Thermostat", "category": "cooling"}
	],
	"fitments": [
		{"engine_id": "ls1", "part_id": "water_pump", "position": "front"}
	]
}`

func TestImportFile(t *testing.T) {
	repo := setupCatalog(t)
	imp := New(repo)
	ctx := context.Background()

	path := writeDoc(t, t.TempDir(), "cooling.json", goodDoc)
	stats, err := imp.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesImported)
	assert.Equal(t, 2, stats.PartsImported)
	assert.Equal(t, 1, stats.FitmentsImported)
	assert.Empty(t, stats.ErrorMessages)

	part, err := repo.Get(ctx, "water_pump")
	require.NoError(t, err)
	assert.Equal(t, "Water Pump", part.Name)
	assert.Equal(t, map[string]string{"bolt_torque_nm": "25"}, part.Attributes)

	fitted, err := repo.ListByEngine(ctx, "ls1")
	require.NoError(t, err)
	assert.Len(t, fitted, 1)
}

func TestImportDir_SkipsBadFiles(t *testing.T) {
	repo := setupCatalog(t)
	imp := New(repo)
	ctx := context.Background()

	dir := t.TempDir()
	writeDoc(t, dir, "good.json", goodDoc)
	writeDoc(t, dir, "broken.json", `{"parts": [`)
	writeDoc(t, dir, "notes.txt", "not a document")

	stats, err := imp.ImportDir(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesImported)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "broken.json")

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportFile_ValidatesBeforeWriting(t *testing.T) {
	repo := setupCatalog(t)
	imp := New(repo)
	ctx := context.Background()

	// The fitment references a part the document never declares, so
	// nothing at all is written.
	path := writeDoc(t, t.TempDir(), "bad.json", `{
		"parts": [{"id": "water_pump", "name": "Water Pump"}],
		"fitments": [{"engine_id": "ls1", "part_id": "missing"}]
	}`)

	_, err := imp.ImportFile(ctx, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown part")

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportDir_ReimportOverwrites(t *testing.T) {
	repo := setupCatalog(t)
	imp := New(repo)
	ctx := context.Background()

	dir := t.TempDir()
	writeDoc(t, dir, "v1.json", `{"parts": [{"id": "water_pump", "name": "Water Pump"}]}`)
	_, err := imp.ImportDir(ctx, dir, nil)
	require.NoError(t, err)

	writeDoc(t, dir, "v1.json", `{"parts": [{"id": "water_pump", "name": "Water Pump HD"}]}`)
	_, err = imp.ImportDir(ctx, dir, nil)
	require.NoError(t, err)

	part, err := repo.Get(ctx, "water_pump")
	require.NoError(t, err)
	assert.Equal(t, "Water Pump HD", part.Name)
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr string
	}{
		{
			name: "valid",
			doc: Document{
				Parts:    []PartDescriptor{{ID: "a", Name: "A"}},
				Fitments: []FitmentDescriptor{{EngineID: "e", PartID: "a"}},
			},
		},
		{
			name:    "missing id",
			doc:     Document{Parts: []PartDescriptor{{Name: "A"}}},
			wantErr: "missing id",
		},
		{
			name:    "missing name",
			doc:     Document{Parts: []PartDescriptor{{ID: "a"}}},
			wantErr: "missing name",
		},
		{
			name:    "duplicate id",
			doc:     Document{Parts: []PartDescriptor{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}},
			wantErr: "duplicate id",
		},
		{
			name: "fitment missing engine",
			doc: Document{
				Parts:    []PartDescriptor{{ID: "a", Name: "A"}},
				Fitments: []FitmentDescriptor{{PartID: "a"}},
			},
			wantErr: "missing engine_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
