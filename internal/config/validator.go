package config

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	sigsyaml "sigs.k8s.io/yaml"

	oerrors "github.com/lockss/turtles/internal/errors"
)

//go:embed schema/descriptors.cue
var schemaFS embed.FS

// Validator checks configuration documents against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	data, err := schemaFS.ReadFile("schema/descriptors.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(data)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate unifies one YAML document against the definition for its kind.
// The origin names the source file in error messages.
func (v *Validator) Validate(kind string, doc []byte, origin string) error {
	definition := v.schema.LookupPath(cue.ParsePath("#" + kind))
	if !definition.Exists() {
		return oerrors.WrapConfigInvalid(
			fmt.Errorf("unknown document kind %q", kind), origin)
	}

	jsonDoc, err := sigsyaml.YAMLToJSON(doc)
	if err != nil {
		return oerrors.WrapConfigInvalid(err, origin)
	}

	// JSON is valid CUE, so the document compiles directly.
	value := v.ctx.CompileBytes(jsonDoc)
	if value.Err() != nil {
		return oerrors.WrapConfigInvalid(value.Err(), origin)
	}

	unified := definition.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return oerrors.WrapConfigInvalid(
			fmt.Errorf("%s", cueerrors.Details(err, nil)), origin)
	}
	return nil
}
