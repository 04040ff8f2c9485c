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

// RefreshRaster promotes every pending raster file to the layer's canonical
// raster path and archives each source into the work area. Files are
// processed in name order, so when several are pending the last processed
// is what remains canonical, but all of them are archived. Feature batches
// and their sidecars belong to the queue and are left alone. Returns the
// number of files promoted.
func (m *Materializer) RefreshRaster(ctx context.Context, layerName string) (int, error) {
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

	promoted := 0
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return promoted, err
		}
		if strings.HasSuffix(src, delta.BatchSuffix) {
			continue
		}
		dst, err := m.cfg.RasterPath(layerName, filepath.Ext(src))
		if err != nil {
			return promoted, err
		}
		if err := atlas.CopyFile(src, dst); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Lost the race: another pass consumed this file already.
				m.log.Debug("raster delta vanished before copy", "layer", layerName, "file", filepath.Base(src))
				continue
			}
			return promoted, fmt.Errorf("promote raster %s: %w", filepath.Base(src), err)
		}
		if _, err := atlas.MoveInto(src, workDir); err != nil {
			return promoted, err
		}
		promoted++
		m.log.Info("raster promoted", "layer", layerName, "file", filepath.Base(src), "path", dst)
	}
	return promoted, nil
}
