// Package schema checks raw request bodies against per-operation JSON schemas
// before they are decoded into typed commands.
package schema

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "bizcards/internal/errors"
)

// Schema names, one per body-carrying operation.
const (
	Register  = "register"
	Login     = "login"
	UserEdit  = "user_edit"
	UserPatch = "user_patch"
	Card      = "card"
	BizNumber = "biznumber"
)

//go:embed schemas/*.json
var files embed.FS

// Registry holds the compiled schemas.
type Registry struct {
	schemas map[string]*gojsonschema.Schema
}

// Load compiles every embedded schema.
func Load() (*Registry, error) {
	entries, err := files.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	reg := &Registry{schemas: make(map[string]*gojsonschema.Schema, len(entries))}
	for _, entry := range entries {
		raw, err := files.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		reg.schemas[strings.TrimSuffix(entry.Name(), ".json")] = compiled
	}
	return reg, nil
}

// MustLoad is Load for process start, where a broken schema is fatal.
func MustLoad() *Registry {
	reg, err := Load()
	if err != nil {
		panic(err)
	}
	return reg
}

// Validate checks body against the named schema and reports the first
// violation as ErrValidation.
func (r *Registry) Validate(name string, body []byte) error {
	compiled, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: request body is required", apperrors.ErrValidation)
	}

	res, err := compiled.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: malformed JSON body", apperrors.ErrValidation)
	}
	if !res.Valid() {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, res.Errors()[0].String())
	}
	return nil
}
