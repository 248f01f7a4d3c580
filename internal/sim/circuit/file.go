package circuit

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"airace/internal/sim/geom"
)

//go:embed schema/circuit.schema.json
var schemaJSON []byte

const schemaURL = "circuit.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Schema returns the compiled circuit file schema.
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// File is the on-disk circuit document (YAML or JSON).
type File struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Anchors     []FileAnchor `yaml:"anchors" json:"anchors"`
}

type FileAnchor struct {
	Pos   []float64 `yaml:"pos,flow" json:"pos"`
	Right []float64 `yaml:"right,flow" json:"right"`
}

func LoadFile(path string) (*Circuit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("circuit %s: %w", path, err)
	}
	return c, nil
}

// Decode validates raw (YAML or JSON) against the circuit schema and builds the circuit.
func Decode(raw []byte) (*Circuit, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// Round-trip through encoding/json so the validator sees plain JSON values.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("not a json-compatible document: %w", err)
	}
	var inst any
	if err := json.Unmarshal(b, &inst); err != nil {
		return nil, err
	}
	s, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := s.Validate(inst); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f.Circuit()
}

func (f File) Circuit() (*Circuit, error) {
	anchors := make([]Anchor, 0, len(f.Anchors))
	for i, a := range f.Anchors {
		if len(a.Pos) != 3 || len(a.Right) != 3 {
			return nil, fmt.Errorf("%w: anchor %d: want 3 components", ErrBadAnchor, i)
		}
		anchors = append(anchors, Anchor{
			Position: geom.V(a.Pos[0], a.Pos[1], a.Pos[2]),
			Right:    geom.V(a.Right[0], a.Right[1], a.Right[2]),
		})
	}
	return New(f.Name, anchors)
}

// ToFile is the inverse of File.Circuit.
func ToFile(c *Circuit) File {
	f := File{Name: c.Name()}
	for _, a := range c.Anchors() {
		f.Anchors = append(f.Anchors, FileAnchor{
			Pos:   []float64{a.Position.X, a.Position.Y, a.Position.Z},
			Right: []float64{a.Right.X, a.Right.Y, a.Right.Z},
		})
	}
	return f
}

// EncodeYAML renders c in the circuit file format.
func EncodeYAML(c *Circuit) ([]byte, error) {
	return yaml.Marshal(ToFile(c))
}
