package classifier

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed data/sample.yaml
var sampleYAML []byte

type objectFile struct {
	Objects []Object `yaml:"objects"`
}

// DecodeObjects reads a YAML document with a top-level "objects" list.
func DecodeObjects(r io.Reader) ([]Object, error) {
	var f objectFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode classifier objects: %w", err)
	}
	for i, o := range f.Objects {
		if o.GUID == "" || o.Name == "" || !o.Level.Valid() {
			return nil, fmt.Errorf("classifier object %d: guid, name and level are required", i)
		}
		if _, err := uuid.Parse(o.GUID); err != nil {
			return nil, fmt.Errorf("classifier object %d: guid %q: %w", i, o.GUID, err)
		}
		if o.ParentGUID != "" {
			if _, err := uuid.Parse(o.ParentGUID); err != nil {
				return nil, fmt.Errorf("classifier object %d: parent guid %q: %w", i, o.ParentGUID, err)
			}
		}
	}
	return f.Objects, nil
}

// SampleObjects returns the embedded classifier extract.
func SampleObjects() []Object {
	var f objectFile
	if err := yaml.Unmarshal(sampleYAML, &f); err != nil {
		panic(fmt.Sprintf("embedded classifier sample: %v", err))
	}
	return f.Objects
}
