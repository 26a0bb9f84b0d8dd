package mindmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTreeJSON = `{
  "label": "Global Warming",
  "node": 1,
  "summary": "Global Warming is a serious risk",
  "children": [
    {"node": 2, "label": "Renewable Energy", "summary": "Reduces emissions", "children": [
      {"node": 4, "label": "Solar Energy", "summary": "Clean power", "children": []}
    ]},
    {"node": 3, "label": "Carbon Capture", "summary": "Removes CO2", "children": []}
  ]
}`

func TestNormalize(t *testing.T) {
	t.Run("strips fences and language tag exactly", func(t *testing.T) {
		raw := "```json\n{\"label\":\"X\",\"node\":1,\"summary\":\"s\",\"children\":[]}\n```"
		want := `{"label":"X","node":1,"summary":"s","children":[]}`
		assert.Equal(t, want, Normalize(raw))
	})

	t.Run("strips fence without language tag", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, Normalize("```\n{\"a\": 1}\n```"))
	})

	t.Run("strips a leading label token before the brace", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, Normalize("json\n{\"a\": 1}"))
	})

	t.Run("strips prepended prose up to the first brace", func(t *testing.T) {
		raw := "Sure! Here is the mind map you asked for:\n\n{\"a\": 1}"
		assert.Equal(t, `{"a": 1}`, Normalize(raw))
	})

	t.Run("keeps arrays", func(t *testing.T) {
		assert.Equal(t, `[1, 2]`, Normalize("the list:\n[1, 2]"))
	})

	t.Run("idempotent on already-normalized text", func(t *testing.T) {
		inputs := []string{
			"```json\n{\"a\": 1}\n```",
			"prose first {\"a\": 1}",
			`{"a": 1}`,
			`[1]`,
			"no payload at all",
		}
		for _, input := range inputs {
			once := Normalize(input)
			assert.Equal(t, once, Normalize(once), "input: %q", input)
		}
	})

	t.Run("does not repair malformed JSON", func(t *testing.T) {
		assert.Equal(t, `{"a":`, Normalize("```json\n{\"a\": \n```"))
	})
}

func TestDecode(t *testing.T) {
	t.Run("valid fenced payload", func(t *testing.T) {
		tree, err := Decode("```json\n" + validTreeJSON + "\n```")
		require.NoError(t, err)

		assert.Equal(t, "Global Warming", tree.Label)
		assert.Equal(t, 1, tree.Node)
		require.Len(t, tree.Children, 2)
		assert.Equal(t, "Renewable Energy", tree.Children[0].Label)
		assert.Equal(t, []string{"Solar Energy", "Carbon Capture"}, tree.TerminalLabels())
	})

	t.Run("keys are case-insensitive", func(t *testing.T) {
		mixed := `{"Label":"X","Node":1,"Summary":"s","Children":[]}`
		lower := `{"label":"X","node":1,"summary":"s","children":[]}`

		fromMixed, err := Decode(mixed)
		require.NoError(t, err)
		fromLower, err := Decode(lower)
		require.NoError(t, err)

		assert.Equal(t, fromLower, fromMixed)
	})

	t.Run("permissive fallback accepts single-quoted literals", func(t *testing.T) {
		tree, err := Decode(`{'label': 'X', 'node': 1, 'summary': 's', 'children': []}`)
		require.NoError(t, err)
		assert.Equal(t, "X", tree.Label)
		assert.Equal(t, 1, tree.Node)
	})

	t.Run("unparseable text yields ParseError with full context", func(t *testing.T) {
		raw := "I could not produce a mind map, sorry."
		_, err := Decode(raw)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, raw, parseErr.Raw)
		assert.NotEmpty(t, parseErr.Normalized)
		assert.Error(t, parseErr.Err)
	})

	t.Run("truncated JSON yields ParseError", func(t *testing.T) {
		_, err := Decode(`{"label": "X", "node": 1, "children": [{"label":`)
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr))
	})

	t.Run("wrong value type yields BuildError", func(t *testing.T) {
		_, err := Decode(`{"label": 123, "node": 1, "summary": "s", "children": []}`)
		var buildErr *BuildError
		require.True(t, errors.As(err, &buildErr))
		assert.NotNil(t, buildErr.Node)
	})
}

func TestValidateSchema(t *testing.T) {
	t.Run("missing key on a child reports the child path", func(t *testing.T) {
		_, err := Decode(`{
			"label": "A", "node": 1, "summary": "s",
			"children": [{"label": "B", "summary": "s2", "children": []}]
		}`)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "root -> children[0]", schemaErr.Path)
		assert.Equal(t, []string{"node"}, schemaErr.Keys)
	})

	t.Run("nested path includes every index", func(t *testing.T) {
		_, err := Decode(`{
			"label": "A", "node": 1, "summary": "s",
			"children": [
				{"label": "B", "node": 2, "summary": "s", "children": []},
				{"label": "C", "node": 3, "summary": "s", "children": [
					{"label": "D", "summary": "s", "children": []}
				]}
			]
		}`)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "root -> children[1] -> children[0]", schemaErr.Path)
	})

	t.Run("illegal keys are reported together", func(t *testing.T) {
		_, err := Decode(`{
			"label": "A", "node": 1, "summary": "s", "children": [],
			"zebra": true, "apple": 1
		}`)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "root", schemaErr.Path)
		assert.Equal(t, []string{"apple", "zebra"}, schemaErr.Keys)
	})

	t.Run("null required field is rejected", func(t *testing.T) {
		_, err := Decode(`{"label": "A", "node": null, "summary": "s", "children": []}`)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, []string{"node"}, schemaErr.Keys)
	})

	t.Run("children must be a list", func(t *testing.T) {
		_, err := Decode(`{"label": "A", "node": 1, "summary": "s", "children": {}}`)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, []string{"children"}, schemaErr.Keys)
	})

	t.Run("non-mapping node is rejected", func(t *testing.T) {
		_, err := Decode(`["not", "a", "node"]`)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "root", schemaErr.Path)
	})
}

func TestFromMap(t *testing.T) {
	t.Run("absent children means leaf, not error", func(t *testing.T) {
		tree, err := FromMap(map[string]interface{}{"label": "X", "node": 1, "summary": "s"})
		require.NoError(t, err)
		assert.True(t, tree.IsTerminal())
		assert.Empty(t, tree.Children)
	})

	t.Run("upper-case keys are folded", func(t *testing.T) {
		tree, err := FromMap(map[string]interface{}{"LABEL": "X", "NODE": 7, "SUMMARY": "s"})
		require.NoError(t, err)
		assert.Equal(t, "X", tree.Label)
		assert.Equal(t, 7, tree.Node)
	})

	t.Run("keywords are carried", func(t *testing.T) {
		tree, err := FromMap(map[string]interface{}{
			"label": "X", "node": 1, "summary": "s",
			"keywords": []interface{}{"k1", "k2"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k2"}, tree.Keywords)
	})

	t.Run("non-integer node id fails the build", func(t *testing.T) {
		_, err := FromMap(map[string]interface{}{"label": "X", "node": "seven", "summary": "s"})
		var buildErr *BuildError
		assert.True(t, errors.As(err, &buildErr))
	})

	t.Run("fractional node id fails the build", func(t *testing.T) {
		_, err := FromMap(map[string]interface{}{"label": "X", "node": 1.5, "summary": "s"})
		var buildErr *BuildError
		assert.True(t, errors.As(err, &buildErr))
	})
}
