package archive

import (
	"archive/zip"
	"fmt"
	"io"
)

// Layout of the bundled export:
//
//	Backups/<backup>.csv
//	Settings/{Platforms,Status,PlayWith,PlayedStatus,Views}.json
//	Games/<safe-name>/info.json
//	Games/<safe-name>/logo.<ext>   (if fetched)
//	Games/<safe-name>/cover.<ext>  (if fetched)

// BackupPath returns the archive path of the flat backup file.
func BackupPath(name string) string {
	return "Backups/" + name + ".csv"
}

// SettingsPath returns the archive path of one catalog settings file.
func SettingsPath(kind string) string {
	return "Settings/" + kind + ".json"
}

// GameInfoPath returns the archive path of a game's metadata file.
func GameInfoPath(gameName string) string {
	return "Games/" + SafeFolderName(gameName) + "/info.json"
}

// GameAssetPath returns the archive path of a game's logo or cover.
func GameAssetPath(gameName, asset, ext string) string {
	return "Games/" + SafeFolderName(gameName) + "/" + asset + ext
}

// Writer assembles a bundled export zip. Entries for different games are
// independent; each game writes to its own folder.
type Writer struct {
	zw *zip.Writer
}

// NewWriter creates an archive writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// AddFile writes one entry.
func (w *Writer) AddFile(path string, data []byte) error {
	f, err := w.zw.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", path, err)
	}
	return nil
}

// Close finalizes the archive.
func (w *Writer) Close() error {
	return w.zw.Close()
}
