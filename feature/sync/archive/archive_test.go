package archive_test

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"game-vault/feature/sync/archive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFolderName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Halo 3", "Halo_3"},
		{"Pokémon Édition", "Pokemon_Edition"},
		{"What? Remains: of/Edith\\Finch", "What_Remains_ofEdithFinch"},
		{"Spaced   out   name", "Spaced_out_name"},
		{"already_safe-name (2).v2", "already_safe-name_(2).v2"},
		{"___many____underscores___", "_many_underscores_"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, archive.SafeFolderName(tc.in), tc.in)
	}
}

func TestSafeFolderNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := archive.SafeFolderName(long)
	assert.Len(t, got, 200)
}

func TestWriterLayout(t *testing.T) {
	var buf bytes.Buffer
	w := archive.NewWriter(&buf)

	require.NoError(t, w.AddFile(archive.BackupPath("2026-08-23"), []byte("Type;Name\n")))
	require.NoError(t, w.AddFile(archive.SettingsPath("Platforms"), []byte(`[]`)))
	require.NoError(t, w.AddFile(archive.GameInfoPath("Pokémon Rouge"), []byte(`{"name":"Pokémon Rouge"}`)))
	require.NoError(t, w.AddFile(archive.GameAssetPath("Pokémon Rouge", "logo", ".png"), []byte{0x89, 0x50}))
	require.NoError(t, w.Close())

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	entries := map[string][]byte{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = data
	}

	assert.Equal(t, []byte("Type;Name\n"), entries["Backups/2026-08-23.csv"])
	assert.Contains(t, entries, "Settings/Platforms.json")
	// Folder name is sanitized, file content is not.
	assert.Equal(t, []byte(`{"name":"Pokémon Rouge"}`), entries["Games/Pokemon_Rouge/info.json"])
	assert.Contains(t, entries, "Games/Pokemon_Rouge/logo.png")
}
