package delta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// Action records what the producer intended a batch for.
type Action string

const (
	// ActionReplace marks a batch destined for a full vector refresh.
	ActionReplace Action = "replace"

	// ActionAnnotate marks a batch destined for a spatial annotation merge.
	ActionAnnotate Action = "annotate"
)

// ParseAction validates an action name against the closed set.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionReplace, ActionAnnotate:
		return Action(s), nil
	case "":
		return ActionReplace, nil
	}
	return "", fmt.Errorf("unknown delta action %q", s)
}

// DefaultJoin is the join name recorded in sidecars. It matches the
// spatial predicate annotation merges default to.
const DefaultJoin = "simple_intersect"

// Meta is the sidecar record written beside every batch file as
// {stem}.delta.json.
type Meta struct {
	Action Action `json:"action"`
	Join   string `json:"join,omitempty"`
}

// File suffixes in the pending area.
const (
	// BatchSuffix marks feature batch files.
	BatchSuffix = ".geojson"

	// SidecarSuffix marks batch metadata sidecars.
	SidecarSuffix = ".delta.json"
)

// Entry describes one pending batch file.
type Entry struct {
	// Layer is the owning layer.
	Layer string

	// Asset is the producing asset, parsed from the filename.
	Asset string

	// Stamp is the filename timestamp (YYYYMMDD_HHMMSS).
	Stamp string

	// Seq is the same-second collision suffix, 0 when absent.
	Seq int

	// Stem is the filename without its extension.
	Stem string

	// Path is the batch file's absolute path.
	Path string

	// Meta is the sidecar metadata, defaulted when the sidecar is absent.
	Meta Meta
}

// SidecarPath returns the path of the entry's metadata sidecar.
func (e Entry) SidecarPath() string {
	return sidecarFor(e.Path)
}

// Archive moves the batch file and its sidecar into destDir. Missing
// sources are benign: a concurrent consumer already moved them. The
// returned flag reports whether this call moved the batch file.
func (e Entry) Archive(destDir string) (bool, error) {
	moved, err := atlas.MoveInto(e.Path, destDir)
	if err != nil {
		return false, err
	}
	if _, err := atlas.MoveInto(e.SidecarPath(), destDir); err != nil {
		return moved, err
	}
	return moved, nil
}

func sidecarFor(batchPath string) string {
	return strings.TrimSuffix(batchPath, BatchSuffix) + SidecarSuffix
}

var stemPattern = regexp.MustCompile(`^(.+)_(\d{8}_\d{6})(?:-(\d+))?$`)

// ParseStem splits a batch filename stem into its producing asset, stamp
// and collision sequence. The split anchors on the stamp shape from the
// right, so asset names may themselves contain underscores.
func ParseStem(stem string) (asset, stamp string, seq int, err error) {
	m := stemPattern.FindStringSubmatch(stem)
	if m == nil {
		return "", "", 0, fmt.Errorf("stem %q does not match {asset}_{YYYYMMDD}_{HHMMSS}", stem)
	}
	if m[3] != "" {
		seq, err = strconv.Atoi(m[3])
		if err != nil {
			return "", "", 0, fmt.Errorf("stem %q: bad collision suffix: %w", stem, err)
		}
	}
	return m[1], m[2], seq, nil
}

// readMeta loads a batch's sidecar. A missing sidecar yields the default
// metadata; a malformed one is an InvalidDeltaError against the batch.
func readMeta(batchPath string) (Meta, error) {
	meta := Meta{Action: ActionReplace, Join: DefaultJoin}
	data, err := os.ReadFile(sidecarFor(batchPath))
	if os.IsNotExist(err) {
		return meta, nil
	}
	if err != nil {
		return meta, fmt.Errorf("read sidecar for %s: %w", batchPath, err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, &InvalidDeltaError{Path: batchPath, Reason: "malformed sidecar", Err: err}
	}
	if meta.Action == "" {
		meta.Action = ActionReplace
	}
	return meta, nil
}

// PendingFiles lists every pending non-directory file for a layer except
// metadata sidecars, ordered by name. Raster promotion and document
// publication consume these directly; feature batches go through Queue.
func PendingFiles(cfg *atlas.Config, layerName string) ([]string, error) {
	dir, err := cfg.PendingDir(layerName)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list pending for %s: %w", layerName, err)
	}
	// os.ReadDir returns entries sorted by name; consumption order relies on it.
	var files []string
	for _, d := range dirents {
		if d.IsDir() || strings.HasSuffix(d.Name(), SidecarSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, d.Name()))
	}
	return files, nil
}
