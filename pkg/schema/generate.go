package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const modulePath = "github.com/macropower/mdc"

// Generator produces the JSON schema for a configuration type, pulling
// descriptions from Go doc comments in the listed package directories.
type Generator struct {
	v       any
	pkgDirs []string
}

// NewGenerator creates a [Generator] for v.
func NewGenerator(v any, pkgDirs ...string) *Generator {
	return &Generator{
		v:       v,
		pkgDirs: pkgDirs,
	}
}

// Generate reflects the schema and returns it as indented JSON.
func (g *Generator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}

	for _, dir := range g.pkgDirs {
		err := r.AddGoComments(modulePath, dir)
		if err != nil {
			return nil, fmt.Errorf("extract comments from %q: %w", dir, err)
		}
	}

	js := r.Reflect(g.v)

	data, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}
