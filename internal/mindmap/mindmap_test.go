package mindmap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTree returns:
//
//	Root
//	├── A
//	│   ├── A1
//	│   │   └── A1a
//	│   └── A2
//	└── B
func sampleTree() *MindMap {
	return &MindMap{
		Label: "Root", Node: 1, Summary: "root summary",
		Children: []*MindMap{
			{Label: "A", Node: 2, Summary: "a summary", Children: []*MindMap{
				{Label: "A1", Node: 3, Summary: "a1 summary", Children: []*MindMap{
					{Label: "A1a", Node: 5, Summary: "a1a summary"},
				}},
				{Label: "A2", Node: 4, Summary: "a2 summary"},
			}},
			{Label: "B", Node: 6, Summary: "b summary"},
		},
	}
}

func TestAsText(t *testing.T) {
	t.Run("renders box-drawing connectors", func(t *testing.T) {
		want := strings.Join([]string{
			"Root",
			"├── A",
			"│   ├── A1",
			"│   │   └── A1a",
			"│   └── A2",
			"└── B",
			"",
		}, "\n")
		assert.Equal(t, want, sampleTree().AsText(""))
	})

	t.Run("prefix applies to every line", func(t *testing.T) {
		tree := &MindMap{Label: "X", Node: 1, Children: []*MindMap{{Label: "Y", Node: 2}}}
		assert.Equal(t, "> X\n> └── Y\n", tree.AsText("> "))
	})

	t.Run("String matches AsText with no prefix", func(t *testing.T) {
		tree := sampleTree()
		assert.Equal(t, tree.AsText(""), tree.String())
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		tree := sampleTree()
		assert.Equal(t, tree.AsText(""), tree.AsText(""))
	})
}

func TestIsTerminal(t *testing.T) {
	tree := sampleTree()
	assert.False(t, tree.IsTerminal())
	assert.True(t, tree.Children[1].IsTerminal())
}

func TestLabelSummaries(t *testing.T) {
	t.Run("pre-order insertion order", func(t *testing.T) {
		ls := sampleTree().LabelSummaries()

		var labels []string
		for pair := ls.Oldest(); pair != nil; pair = pair.Next() {
			labels = append(labels, pair.Key)
		}
		assert.Equal(t, []string{"Root", "A", "A1", "A1a", "A2", "B"}, labels)

		summary, ok := ls.Get("A1a")
		require.True(t, ok)
		assert.Equal(t, "a1a summary", summary)
	})

	t.Run("duplicate labels collapse last-write-wins", func(t *testing.T) {
		tree := &MindMap{
			Label: "Root", Node: 1, Summary: "root",
			Children: []*MindMap{
				{Label: "Dup", Node: 2, Summary: "first"},
				{Label: "Dup", Node: 3, Summary: "second"},
			},
		}
		ls := tree.LabelSummaries()
		assert.Equal(t, 2, ls.Len())
		summary, _ := ls.Get("Dup")
		assert.Equal(t, "second", summary)
	})
}

func TestSummaries(t *testing.T) {
	got := sampleTree().Summaries()
	assert.Equal(t, []string{
		"root summary", "a summary", "a1 summary", "a1a summary", "a2 summary", "b summary",
	}, got)
}

func TestTerminalViews(t *testing.T) {
	tree := sampleTree()

	t.Run("terminal labels are exactly the childless nodes", func(t *testing.T) {
		assert.Equal(t, []string{"A1a", "A2", "B"}, tree.TerminalLabels())
	})

	t.Run("terminal summaries align with labels", func(t *testing.T) {
		assert.Equal(t, []string{"a1a summary", "a2 summary", "b summary"}, tree.TerminalSummaries())
	})

	t.Run("no internal label leaks into the terminal set", func(t *testing.T) {
		for _, label := range tree.TerminalLabels() {
			assert.NotContains(t, []string{"Root", "A", "A1"}, label)
		}
	})
}

func TestLeafParents(t *testing.T) {
	mapping := sampleTree().LeafParents()

	assert.Equal(t, map[string]string{
		"A1a": "A1",
		"A2":  "A",
		"B":   "Root",
	}, mapping)

	_, hasRoot := mapping["Root"]
	assert.False(t, hasRoot, "root must never be a key")
	_, hasInternal := mapping["A"]
	assert.False(t, hasInternal, "internal nodes must never be keys")
}

func TestStringifyLabelSummaries(t *testing.T) {
	lines := StringifyLabelSummaries(sampleTree().TerminalLabelSummaries())
	assert.Equal(t, []string{
		"A1a: a1a summary",
		"A2: a2 summary",
		"B: b summary",
	}, lines)
}

func TestRowsAndTable(t *testing.T) {
	tree := sampleTree()

	t.Run("rows flatten pre-order with parent column", func(t *testing.T) {
		rows := tree.Rows("")
		want := []Row{
			{Parent: "", Label: "Root", Node: 1, Summary: "root summary"},
			{Parent: "Root", Label: "A", Node: 2, Summary: "a summary"},
			{Parent: "A", Label: "A1", Node: 3, Summary: "a1 summary"},
			{Parent: "A1", Label: "A1a", Node: 5, Summary: "a1a summary"},
			{Parent: "A", Label: "A2", Node: 4, Summary: "a2 summary"},
			{Parent: "Root", Label: "B", Node: 6, Summary: "b summary"},
		}
		assert.Equal(t, want, rows)
	})

	t.Run("table drops rows parented by none or the root", func(t *testing.T) {
		rows := tree.Table(false)
		var labels []string
		for _, row := range rows {
			labels = append(labels, row.Label)
		}
		assert.Equal(t, []string{"A1", "A1a", "A2"}, labels)
	})

	t.Run("leavesOnly keeps leaves within the row set", func(t *testing.T) {
		rows := tree.Table(true)
		var labels []string
		for _, row := range rows {
			labels = append(labels, row.Label)
		}
		assert.Equal(t, []string{"A1a", "A2"}, labels)
	})
}

func TestSerialization(t *testing.T) {
	t.Run("children and keywords are arrays, never null", func(t *testing.T) {
		data, err := json.Marshal(New("X", 1, "s"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"children":[]`)
		assert.Contains(t, string(data), `"keywords":[]`)
		assert.NotContains(t, string(data), "null")
	})

	t.Run("round-trips through the builder", func(t *testing.T) {
		tree, err := FromMap(map[string]interface{}{
			"label": "Root", "node": 1, "summary": "root",
			"keywords": []interface{}{"alpha", "beta"},
			"children": []interface{}{
				map[string]interface{}{
					"label": "A", "node": 2, "summary": "a",
					"children": []interface{}{
						map[string]interface{}{"label": "A1", "node": 3, "summary": "a1"},
					},
				},
				map[string]interface{}{"label": "B", "node": 4, "summary": "b"},
			},
		})
		require.NoError(t, err)

		treeJSON, err := tree.ToJSON()
		require.NoError(t, err)

		rebuilt, err := FromJSON([]byte(treeJSON))
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(tree, rebuilt))
	})

	t.Run("serialization is stable across a rebuild", func(t *testing.T) {
		tree := sampleTree()
		tree.Keywords = []string{"alpha"}

		first, err := tree.ToJSON()
		require.NoError(t, err)
		rebuilt, err := FromJSON([]byte(first))
		require.NoError(t, err)
		second, err := rebuilt.ToJSON()
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
