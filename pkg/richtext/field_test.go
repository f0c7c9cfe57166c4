// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

type fieldHolder struct {
	Abstract *Field `json:"abstract,omitempty" yaml:"abstract,omitempty"`
}

func TestField_JSON(t *testing.T) {
	in := fieldHolder{Abstract: NewField(sampleDoc())}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"doc"`)

	var out fieldHolder
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotNil(t, out.Abstract)
	assert.True(t, Equal(in.Abstract.Doc, out.Abstract.Doc))
}

func TestField_JSONRejectsSchemaViolations(t *testing.T) {
	var out fieldHolder
	err := json.Unmarshal([]byte(`{"abstract":{"type":"doc","content":[{"type":"text","text":"x"}]}}`), &out)
	assert.Error(t, err)
}

func TestField_YAMLUsesMarkup(t *testing.T) {
	in := fieldHolder{Abstract: MustParseMarkup(`Cells <italic>divide</italic>`)}
	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<italic>divide</italic>")

	var out fieldHolder
	require.NoError(t, yaml.Unmarshal(data, &out))
	require.NotNil(t, out.Abstract)
	assert.True(t, Equal(in.Abstract.Doc, out.Abstract.Doc))
}

func TestField_IsEmpty(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.True(t, (*Field)(nil).IsEmpty())
	assert.True(t, Text("").IsEmpty())
	assert.False(t, Text("x").IsEmpty())
	assert.False(t, NewField(NewDoc(NewParagraph(NewCitation("1", "bib1")))).IsEmpty())
}

func TestApply_NilField(t *testing.T) {
	_, err := Apply(nil, &Transaction{})
	assert.Error(t, err)
}
