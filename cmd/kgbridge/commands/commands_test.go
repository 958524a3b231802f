package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/kgbridge/am"
	"github.com/teranos/kgbridge/display"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/triple"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		path    string
		payload string
		want    triple.Format
	}{
		{"flag wins", "ntriples", "data.ttl", "", triple.NTriples},
		{"extension", "", "onto.owl", "", triple.RDFXML},
		{"sniffed json-ld", "", "data.txt", `{"@id": "http://e/a"}`, triple.JSONLD},
		{"no extension defaults to turtle", "", "data", ":a :b :c .", triple.Turtle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.flag, tt.path, []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolveFormat("bogus", "x.ttl", nil)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRenderConfigMasksPasswords(t *testing.T) {
	cfg := &am.Config{}
	cfg.Store.Backend = am.BackendNeo4j
	cfg.Store.Neo4j.URI = "bolt://localhost:7687"
	cfg.Store.Neo4j.Password = "s3cret"
	cfg.Store.Redis.Password = "hunter2"

	for _, format := range []string{"toml", "json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			out, err := renderConfig(cfg, format)
			require.NoError(t, err)
			assert.NotContains(t, out, "s3cret")
			assert.NotContains(t, out, "hunter2")
			assert.Contains(t, out, "bolt://localhost:7687")
		})
	}
	assert.Equal(t, "s3cret", cfg.Store.Neo4j.Password)

	_, err := renderConfig(cfg, "xml")
	assert.Error(t, err)
}

func TestRulesValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.rules")
	require.NoError(t, os.WriteFile(good, []byte("[r1: (?x <http://e/p> ?y) -> (?y <http://e/q> ?x)]"), 0o644))
	bad := filepath.Join(dir, "bad.rules")
	require.NoError(t, os.WriteFile(bad, []byte("[r1: (?x :p ?y) -> (?y :q ?x)]"), 0o644))

	var out bytes.Buffer
	rulesValidateCmd.SetOut(&out)
	t.Setenv(display.OutputEnv, "json")

	require.NoError(t, runRulesValidate(rulesValidateCmd, []string{good}))
	assert.Contains(t, out.String(), `"valid": true`)

	out.Reset()
	err := runRulesValidate(rulesValidateCmd, []string{bad})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, out.String(), `"valid": false`)
}

func TestRulesShowAndExamples(t *testing.T) {
	var out bytes.Buffer
	rulesShowCmd.SetOut(&out)
	require.NoError(t, runRulesShow(rulesShowCmd, []string{"rdfs"}))
	assert.Contains(t, out.String(), "[rdfs9:")

	assert.Error(t, runRulesShow(rulesShowCmd, []string{"pellet"}))

	out.Reset()
	rulesExamplesCmd.SetOut(&out)
	require.NoError(t, runRulesExamples(rulesExamplesCmd, []string{"custom_family"}))
	assert.NotEmpty(t, out.String())
	assert.Error(t, runRulesExamples(rulesExamplesCmd, []string{"missing"}))
}
