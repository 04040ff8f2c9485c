package layer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/delta"
)

// DocumentMetaSuffix marks the positioning record published beside every
// document.
const DocumentMetaSuffix = ".document.json"

// DocumentMeta positions a published document on the map. Documents carry
// no georeferencing of their own, so the corners are the atlas extent as
// [NW, NE, SE, SW] lon/lat pairs.
type DocumentMeta struct {
	Name      string       `json:"name"`
	FileType  string       `json:"file_type"`
	Corners   [][2]float64 `json:"corners"`
	ImagePath string       `json:"image_path"`
}

// RefreshDocument publishes every pending file into the layer directory
// under its own name, writes a DocumentMeta record beside it, and archives
// the source into the work area. Each pending file becomes an independent
// named document; documents never merge. Returns the number published.
func (m *Materializer) RefreshDocument(ctx context.Context, layerName string) (int, error) {
	if _, err := m.requireLayer(layerName); err != nil {
		return 0, err
	}
	files, err := delta.PendingFiles(m.cfg, layerName)
	if err != nil {
		return 0, err
	}
	workDir, err := m.cfg.WorkDir(layerName)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		base := filepath.Base(src)
		stem := strings.TrimSuffix(base, filepath.Ext(base))

		dst, err := m.cfg.Path(atlas.CategoryLayers, layerName, base)
		if err != nil {
			return published, err
		}
		if err := atlas.CopyFile(src, dst); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				m.log.Debug("document delta vanished before copy", "layer", layerName, "file", base)
				continue
			}
			return published, fmt.Errorf("publish document %s: %w", base, err)
		}

		meta := DocumentMeta{
			Name:      stem,
			FileType:  strings.TrimPrefix(filepath.Ext(base), "."),
			Corners:   m.cfg.BBox.Corners(),
			ImagePath: dst,
		}
		metaPath, err := m.cfg.Path(atlas.CategoryLayers, layerName, stem+DocumentMetaSuffix)
		if err != nil {
			return published, err
		}
		if err := atlas.WriteJSON(metaPath, meta); err != nil {
			return published, fmt.Errorf("write document record %s: %w", stem, err)
		}

		if _, err := atlas.MoveInto(src, workDir); err != nil {
			return published, err
		}
		published++
		m.log.Info("document published", "layer", layerName, "document", stem, "path", dst)
	}
	return published, nil
}
