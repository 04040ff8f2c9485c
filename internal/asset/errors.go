package asset

import (
	"errors"
	"fmt"
)

// MissingTemplateError reports a config_def naming a template the catalog
// does not define.
type MissingTemplateError struct {
	// Name is the referenced template.
	Name string

	// Namespace is the catalog section searched, "layers" or "assets".
	Namespace string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("no %s template named %q", e.Namespace, e.Name)
}

// IsMissingTemplate reports whether err is a MissingTemplateError.
func IsMissingTemplate(err error) bool {
	var m *MissingTemplateError
	return errors.As(err, &m)
}

// UnknownMaterializerError reports a fetch type no registered materializer
// handles.
type UnknownMaterializerError struct {
	FetchType string
	Asset     string
}

func (e *UnknownMaterializerError) Error() string {
	return fmt.Sprintf("no materializer for fetch type %q (asset %q)", e.FetchType, e.Asset)
}

// IsUnknownMaterializer reports whether err is an UnknownMaterializerError.
func IsUnknownMaterializer(err error) bool {
	var m *UnknownMaterializerError
	return errors.As(err, &m)
}
