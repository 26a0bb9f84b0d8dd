// Package mindmap implements the hierarchical theme-tree data structure
// and the pipeline that reconciles free-form LLM output into it.
//
// A MindMap is a plain tree: each node carries a label, an advisory
// integer id, a short summary, ordered children and optional keywords.
// A node with no children is a terminal (leaf) node; terminal-ness is
// purely structural.
package mindmap

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MindMap is one node of the hierarchy. Child order is generation order
// and is semantically meaningful (branch priority as produced by the LLM).
type MindMap struct {
	Label    string     `json:"label"`
	Node     int        `json:"node"`
	Summary  string     `json:"summary"`
	Children []*MindMap `json:"children"`
	Keywords []string   `json:"keywords"`
}

// New creates a node with the given label, id and summary and no children.
func New(label string, node int, summary string) *MindMap {
	return &MindMap{Label: label, Node: node, Summary: summary}
}

// IsTerminal reports whether the node is a leaf.
func (m *MindMap) IsTerminal() bool {
	return len(m.Children) == 0
}

// String renders the tree with box-drawing connectors.
func (m *MindMap) String() string {
	return m.AsText("")
}

// AsText renders the tree as ASCII art with box-drawing connectors,
// prefixing every line with prefix. The last child at each level gets a
// corner glyph and its subtree drops the vertical continuation bar.
// Pure function of the tree.
func (m *MindMap) AsText(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	m.writeText(&b, prefix)
	return b.String()
}

func (m *MindMap) writeText(b *strings.Builder, prefix string) {
	b.WriteString(m.Label)
	b.WriteByte('\n')

	for i, child := range m.Children {
		branch, childPrefix := "├── ", prefix+"│   "
		if i == len(m.Children)-1 {
			branch, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		child.writeText(b, childPrefix)
	}
}

// LabelSummaries returns label -> summary for every node, in pre-order
// insertion order. Duplicate labels collapse last-write-wins (the later
// node's summary replaces the earlier one at its original position);
// this silently drops data for trees with duplicate labels and is
// accepted behavior, not an error.
func (m *MindMap) LabelSummaries() *orderedmap.OrderedMap[string, string] {
	out := orderedmap.New[string, string]()
	m.collectSummaries(out, false)
	return out
}

// TerminalLabelSummaries is LabelSummaries restricted to leaf nodes,
// with the same pre-order and last-write-wins collision policy.
func (m *MindMap) TerminalLabelSummaries() *orderedmap.OrderedMap[string, string] {
	out := orderedmap.New[string, string]()
	m.collectSummaries(out, true)
	return out
}

func (m *MindMap) collectSummaries(out *orderedmap.OrderedMap[string, string], terminalOnly bool) {
	if !terminalOnly || m.IsTerminal() {
		out.Set(m.Label, m.Summary)
	}
	for _, child := range m.Children {
		child.collectSummaries(out, terminalOnly)
	}
}

// Summaries returns every node's summary in pre-order.
func (m *MindMap) Summaries() []string {
	summaries := []string{m.Summary}
	for _, child := range m.Children {
		summaries = append(summaries, child.Summaries()...)
	}
	return summaries
}

// TerminalLabels returns the labels of leaf nodes in insertion order.
func (m *MindMap) TerminalLabels() []string {
	ls := m.TerminalLabelSummaries()
	labels := make([]string, 0, ls.Len())
	for pair := ls.Oldest(); pair != nil; pair = pair.Next() {
		labels = append(labels, pair.Key)
	}
	return labels
}

// TerminalSummaries returns the summaries of leaf nodes in insertion order.
func (m *MindMap) TerminalSummaries() []string {
	ls := m.TerminalLabelSummaries()
	summaries := make([]string, 0, ls.Len())
	for pair := ls.Oldest(); pair != nil; pair = pair.Next() {
		summaries = append(summaries, pair.Value)
	}
	return summaries
}

// LeafParents maps every leaf's label to its immediate parent's label.
// The root is never a key and internal nodes are never keys.
func (m *MindMap) LeafParents() map[string]string {
	mapping := make(map[string]string)
	m.collectLeafParents(mapping, "")
	return mapping
}

func (m *MindMap) collectLeafParents(mapping map[string]string, parentLabel string) {
	if parentLabel != "" && m.IsTerminal() {
		mapping[m.Label] = parentLabel
	}
	for _, child := range m.Children {
		child.collectLeafParents(mapping, m.Label)
	}
}

// StringifyLabelSummaries flattens an ordered label -> summary map into
// "label: summary" lines.
func StringifyLabelSummaries(ls *orderedmap.OrderedMap[string, string]) []string {
	out := make([]string, 0, ls.Len())
	for pair := ls.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key+": "+pair.Value)
	}
	return out
}

// MarshalJSON serializes the canonical export shape: children and
// keywords are always arrays, never null, so the output round-trips
// through FromMap.
func (m *MindMap) MarshalJSON() ([]byte, error) {
	type plain MindMap
	p := plain(*m)
	if p.Children == nil {
		p.Children = []*MindMap{}
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	return json.Marshal(p)
}

// ToJSON serializes the tree as indented JSON.
func (m *MindMap) ToJSON() (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Row is one flattened node with an explicit parent-label column.
type Row struct {
	Parent  string `json:"parent"`
	Label   string `json:"label"`
	Node    int    `json:"node"`
	Summary string `json:"summary"`
}

// Rows flattens the tree to one row per node in pre-order. parentLabel
// is the parent column value for the receiver's own row.
func (m *MindMap) Rows(parentLabel string) []Row {
	rows := []Row{{Parent: parentLabel, Label: m.Label, Node: m.Node, Summary: m.Summary}}
	for _, child := range m.Children {
		rows = append(rows, child.Rows(m.Label)...)
	}
	return rows
}

// Table returns the flattened rows minus the synthetic self-row (the
// row whose parent is empty or the root's own label). With leavesOnly,
// rows whose label appears as a parent of another remaining row are
// excluded as well, keeping only nodes that are leaves within the
// flattened row set.
func (m *MindMap) Table(leavesOnly bool) []Row {
	rows := m.Rows("")

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Parent == "" || row.Parent == m.Label {
			continue
		}
		filtered = append(filtered, row)
	}

	if !leavesOnly {
		return filtered
	}

	parents := make(map[string]bool, len(filtered))
	for _, row := range filtered {
		parents[row.Parent] = true
	}
	leaves := make([]Row, 0, len(filtered))
	for _, row := range filtered {
		if !parents[row.Label] {
			leaves = append(leaves, row)
		}
	}
	return leaves
}
