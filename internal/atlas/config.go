package atlas

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fireatlas/dataswale/internal/geo"
)

// Reserved keys on layer and asset entries.
const (
	// KeyConfigDef names the template an entry inherits from.
	KeyConfigDef = "config_def"

	// KeyConfig holds an entry's resolved configuration. It never acts as
	// an override, so resolution cannot clobber the map it is building.
	KeyConfig = "config"
)

// Config is the root document for one atlas: identity, storage root,
// extent, layer declarations and asset wiring. It is the single input
// every engine component takes.
type Config struct {
	Name        string            `json:"name"`
	DataRoot    string            `json:"data_root"`
	Description string            `json:"description,omitempty"`
	Version     string            `json:"version,omitempty"`
	CRS         string            `json:"crs,omitempty"`
	BBox        BBox              `json:"bbox"`
	Layers      []*Layer          `json:"layers,omitempty"`
	Assets      map[string]*Asset `json:"assets,omitempty"`
}

// Layer is one declared layer entry. Beyond the identifying name, entries
// are open maps: every declared key except config_def and config is an
// override applied during template resolution, kept verbatim in Overrides.
type Layer struct {
	// Name identifies the layer and its directories on disk.
	Name string

	// ConfigDef references a layer template, empty when none.
	ConfigDef string

	// Overrides holds every declared key except config_def and config.
	Overrides map[string]any

	// Config is the resolved configuration. Populated by asset.ResolveLayers.
	Config map[string]any
}

// UnmarshalJSON keeps the full entry map so unknown keys survive as
// overrides.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	l.Name, _ = m["name"].(string)
	l.ConfigDef, _ = m[KeyConfigDef].(string)
	if c, ok := m[KeyConfig].(map[string]any); ok {
		l.Config = c
	}
	l.Overrides = make(map[string]any, len(m))
	for k, v := range m {
		if k == KeyConfigDef || k == KeyConfig {
			continue
		}
		l.Overrides[k] = v
	}
	return nil
}

// MarshalJSON re-emits the entry map, preserving overrides.
func (l *Layer) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(l.Overrides)+2)
	for k, v := range l.Overrides {
		m[k] = v
	}
	if l.Name != "" {
		m["name"] = l.Name
	}
	if l.ConfigDef != "" {
		m[KeyConfigDef] = l.ConfigDef
	}
	if l.Config != nil {
		m[KeyConfig] = l.Config
	}
	return json.Marshal(m)
}

// Option returns a configuration value, preferring the resolved config
// over the declared overrides.
func (l *Layer) Option(key string) (any, bool) {
	return optionValue(l.Config, l.Overrides, key)
}

// GeometryType returns the declared geometry kind ("point", "linestring",
// "polygon"), empty when undeclared.
func (l *Layer) GeometryType() string {
	return optionString(l.Config, l.Overrides, "geometry_type")
}

// VectorWidth returns the layer's configured default stroke width and
// whether one is set.
func (l *Layer) VectorWidth() (int, bool) {
	v, ok := l.Option("vector_width")
	if !ok {
		return 0, false
	}
	return geo.Int(v)
}

// Asset is one declared asset entry: the wiring between an external data
// source and the layer it materializes into. Like layers, entries are open
// maps with two reserved keys.
type Asset struct {
	// ConfigDef references an asset template, empty when none.
	ConfigDef string

	// Overrides holds every declared key except config_def and config.
	Overrides map[string]any

	// Config is the resolved configuration. Populated by asset.ResolveAssets.
	Config map[string]any
}

// UnmarshalJSON keeps the full entry map so unknown keys survive as
// overrides.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	a.ConfigDef, _ = m[KeyConfigDef].(string)
	if c, ok := m[KeyConfig].(map[string]any); ok {
		a.Config = c
	}
	a.Overrides = make(map[string]any, len(m))
	for k, v := range m {
		if k == KeyConfigDef || k == KeyConfig {
			continue
		}
		a.Overrides[k] = v
	}
	return nil
}

// MarshalJSON re-emits the entry map, preserving overrides.
func (a *Asset) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(a.Overrides)+2)
	for k, v := range a.Overrides {
		m[k] = v
	}
	if a.ConfigDef != "" {
		m[KeyConfigDef] = a.ConfigDef
	}
	if a.Config != nil {
		m[KeyConfig] = a.Config
	}
	return json.Marshal(m)
}

// Option returns a configuration value, preferring the resolved config
// over the declared overrides.
func (a *Asset) Option(key string) (any, bool) {
	return optionValue(a.Config, a.Overrides, key)
}

// StringOption returns a string configuration value, empty when unset or
// not a string.
func (a *Asset) StringOption(key string) string {
	return optionString(a.Config, a.Overrides, key)
}

// StringsOption returns a string-list configuration value.
func (a *Asset) StringsOption(key string) []string {
	v, ok := a.Option(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// OutLayer returns the layer this asset materializes into.
func (a *Asset) OutLayer() string { return a.StringOption("out_layer") }

// InLayer returns the layer this asset reads from, when declared.
func (a *Asset) InLayer() string { return a.StringOption("in_layer") }

// FetchType returns the declared reconciliation policy name.
func (a *Asset) FetchType() string { return a.StringOption("fetch_type") }

// LoadConfig reads and validates an atlas configuration document.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read atlas config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse atlas config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteConfig persists an atlas configuration document.
func WriteConfig(cfg *Config, path string) error {
	return WriteFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	})
}

// Validate checks the fields no operation can proceed without.
func (c *Config) Validate() error {
	if c.Name == "" {
		return NewConfigError("name", "required")
	}
	if c.DataRoot == "" {
		return NewConfigError("data_root", "required")
	}
	for i, l := range c.Layers {
		if l == nil || l.Name == "" {
			return NewConfigError(fmt.Sprintf("layers[%d].name", i), "required")
		}
	}
	return nil
}

// LayerByName finds a declared layer.
func (c *Config) LayerByName(name string) (*Layer, bool) {
	for _, l := range c.Layers {
		if l != nil && l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// AssetByName finds a declared asset.
func (c *Config) AssetByName(name string) (*Asset, bool) {
	a, ok := c.Assets[name]
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

func optionValue(config, overrides map[string]any, key string) (any, bool) {
	if config != nil {
		if v, ok := config[key]; ok {
			return v, true
		}
	}
	if overrides != nil {
		if v, ok := overrides[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func optionString(config, overrides map[string]any, key string) string {
	v, ok := optionValue(config, overrides, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
