package reasoning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/teranos/kgbridge/errors"
)

//go:embed examples.yaml
var examplesYAML []byte

// Example is one catalogue entry. Kind is "data" for Turtle payloads and
// "rules" for custom rule text; Reasoner is the type the example is
// meant to run with.
type Example struct {
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind" json:"kind"`
	Reasoner string `yaml:"reasoner" json:"reasoner"`
	Content  string `yaml:"content" json:"content"`
}

// Catalogue is the ordered example list. It marshals to a JSON object
// of name to content that keeps catalogue order.
type Catalogue []Example

// Get returns the example called name.
func (c Catalogue) Get(name string) (Example, bool) {
	for _, e := range c {
		if e.Name == name {
			return e, true
		}
	}
	return Example{}, false
}

func (c Catalogue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var (
	examplesOnce sync.Once
	examples     Catalogue
	examplesErr  error
)

// Examples returns the built-in example catalogue.
func Examples() (Catalogue, error) {
	examplesOnce.Do(func() {
		if err := yaml.Unmarshal(examplesYAML, &examples); err != nil {
			examplesErr = errors.Wrap(err, "decode embedded examples")
		}
	})
	return examples, examplesErr
}
