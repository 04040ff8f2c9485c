package cli

import "github.com/caarlos0/env/v11"

// Env carries the environment defaults for the global flags, so pipelines
// can configure the CLI without repeating flags on every invocation.
type Env struct {
	Config   string `env:"DATASWALE_CONFIG"`
	DataRoot string `env:"DATASWALE_DATA_ROOT"`
	Version  string `env:"DATASWALE_VERSION"`
	Catalog  string `env:"DATASWALE_CATALOG"`
}

// ParseEnv reads the environment defaults. All fields are plain strings, so
// parsing cannot fail; unset variables leave their zero values.
func ParseEnv() Env {
	var e Env
	_ = env.Parse(&e)
	return e
}
