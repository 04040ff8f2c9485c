// Package catalog loads layer and asset templates from CUE package
// directories. A catalog is shared across atlases: entries reference its
// templates by name through config_def.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Catalog carries the decoded template namespaces.
type Catalog struct {
	// Layers maps layer template names to their bodies.
	Layers map[string]map[string]any

	// Assets maps asset template names to their bodies.
	Assets map[string]map[string]any

	// FileCount is the number of CUE files the catalog was built from.
	FileCount int
}

// LoadError reports a failure to load a catalog directory.
type LoadError struct {
	Dir     string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s: %s: %v", e.Dir, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s: %s", e.Dir, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load evaluates every CUE file in dir as one package and decodes its
// "layers" and "assets" sections into template namespaces. Either section
// may be absent; a catalog defining neither is an error.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Dir: dir, Message: "catalog directory not found"}
	}
	if err != nil {
		return nil, &LoadError{Dir: dir, Message: "access catalog directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Dir: dir, Message: "not a directory"}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Dir: dir, Message: "scan catalog directory", Err: err}
	}
	if len(files) == 0 {
		return nil, &LoadError{Dir: dir, Message: "no CUE files found"}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Dir: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Dir: dir, Message: "loading CUE files", Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Dir: dir, Message: "building CUE value", Err: err}
	}

	cat := &Catalog{
		Layers:    map[string]map[string]any{},
		Assets:    map[string]map[string]any{},
		FileCount: len(files),
	}
	if err := decodeSection(value, "layers", cat.Layers); err != nil {
		return nil, &LoadError{Dir: dir, Message: "decode layer templates", Err: err}
	}
	if err := decodeSection(value, "assets", cat.Assets); err != nil {
		return nil, &LoadError{Dir: dir, Message: "decode asset templates", Err: err}
	}
	if len(cat.Layers) == 0 && len(cat.Assets) == 0 {
		return nil, &LoadError{Dir: dir, Message: "no layer or asset templates found"}
	}
	return cat, nil
}

// decodeSection decodes one template namespace from the unified CUE value.
func decodeSection(value cue.Value, section string, into map[string]map[string]any) error {
	v := value.LookupPath(cue.ParsePath(section))
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return fmt.Errorf("iterate %s: %w", section, err)
	}
	for iter.Next() {
		var body map[string]any
		if err := iter.Value().Decode(&body); err != nil {
			return fmt.Errorf("template %s.%s: %w", section, iter.Label(), err)
		}
		into[iter.Label()] = body
	}
	return nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
