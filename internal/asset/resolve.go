package asset

import (
	"fmt"
	"sort"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// Templates is one catalog namespace: template name to template body.
type Templates map[string]map[string]any

// Resolve fills the resolved configuration of every layer and asset in the
// atlas from the given catalog namespaces.
func Resolve(cfg *atlas.Config, layers, assets Templates) error {
	if err := ResolveLayers(cfg, layers); err != nil {
		return err
	}
	return ResolveAssets(cfg, assets)
}

// ResolveLayers fills every layer's resolved configuration from the layer
// templates.
func ResolveLayers(cfg *atlas.Config, templates Templates) error {
	for _, l := range cfg.Layers {
		if l == nil {
			continue
		}
		resolved, err := resolveEntry(l.ConfigDef, l.Overrides, templates, "layers")
		if err != nil {
			return fmt.Errorf("layer %s: %w", l.Name, err)
		}
		l.Config = resolved
	}
	return nil
}

// ResolveAssets fills every asset's resolved configuration from the asset
// templates and validates its fetch type, so a bad policy name surfaces
// here and never at materialization. Assets resolve in name order.
func ResolveAssets(cfg *atlas.Config, templates Templates) error {
	names := make([]string, 0, len(cfg.Assets))
	for name := range cfg.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := cfg.Assets[name]
		if a == nil {
			continue
		}
		resolved, err := resolveEntry(a.ConfigDef, a.Overrides, templates, "assets")
		if err != nil {
			return fmt.Errorf("asset %s: %w", name, err)
		}
		a.Config = resolved
		if _, err := ParseFetchType(a.FetchType()); err != nil {
			return atlas.NewConfigError("assets."+name+".fetch_type", err.Error())
		}
	}
	return nil
}

// resolveEntry merges an entry over its template: a deep copy of the
// template body, shallowly overridden key by key with the entry's declared
// values. Reserved keys never override.
func resolveEntry(defName string, overrides map[string]any, templates Templates, namespace string) (map[string]any, error) {
	var resolved map[string]any
	if defName != "" {
		tpl, ok := templates[defName]
		if !ok {
			return nil, &MissingTemplateError{Name: defName, Namespace: namespace}
		}
		resolved = copyTemplate(tpl)
	} else {
		resolved = make(map[string]any, len(overrides))
	}
	for k, v := range overrides {
		if k == atlas.KeyConfigDef || k == atlas.KeyConfig {
			continue
		}
		resolved[k] = v
	}
	return resolved, nil
}

func copyTemplate(t map[string]any) map[string]any {
	return deepCopy(t).(map[string]any)
}

// deepCopy duplicates nested maps and slices so resolved configurations
// never alias template storage.
func deepCopy(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
