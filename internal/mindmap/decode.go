package mindmap

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"themetree/internal/logging"
)

// The fixed schema every LLM-produced node must match. The serializer
// additionally emits "keywords", which only the builder accepts: a tree
// embedded back into a refinement prompt is legal builder input but the
// model is told to reply with the four-key shape.
var allowedKeys = []string{"label", "node", "summary", "children"}

// builderKeys is the superset the trusting builder recognizes.
var builderKeys = map[string]bool{
	"label": true, "node": true, "summary": true, "children": true, "keywords": true,
}

// Decode runs the full reconciliation pipeline on raw LLM text:
// normalize, parse (strict JSON, then permissive fallback), lower-case
// every mapping key, validate against the fixed schema, build the tree.
// Failures surface as *ParseError, *SchemaError or *BuildError.
func Decode(raw string) (*MindMap, error) {
	text := Normalize(raw)

	payload, err := parsePayload(text)
	if err != nil {
		logging.MindmapError("decode: %v", err)
		return nil, &ParseError{Raw: raw, Normalized: text, Err: err}
	}

	payload = lowerKeys(payload)

	if err := validateNode(payload, "root"); err != nil {
		logging.MindmapError("decode: %v", err)
		return nil, err
	}

	// Validated above, so the assertion cannot fail.
	tree, err := FromMap(payload.(map[string]interface{}))
	if err != nil {
		logging.MindmapError("decode: %v", err)
		return nil, err
	}
	return tree, nil
}

// parsePayload tries strict JSON first, then YAML as a permissive
// fallback. YAML is a superset of JSON and also accepts the
// single-quoted, Python-literal-style mappings some models emit.
func parsePayload(text string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return v, nil
	default:
		return nil, fmt.Errorf("payload is not an object or array (got %T)", v)
	}
}

// lowerKeys recursively lower-cases every mapping key; lists are walked
// so nested mappings inside children are covered.
func lowerKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[strings.ToLower(k)] = lowerKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = lowerKeys(val)
		}
		return out
	default:
		return v
	}
}

// validateNode enforces the fixed schema recursively. Every failure
// embeds the dotted/indexed path of the offending node.
func validateNode(v interface{}, path string) error {
	node, ok := v.(map[string]interface{})
	if !ok {
		return &SchemaError{Path: path, Reason: fmt.Sprintf("node is not a mapping (got %T)", v)}
	}

	var illegal []string
	for k := range node {
		legal := false
		for _, a := range allowedKeys {
			if k == a {
				legal = true
				break
			}
		}
		if !legal {
			illegal = append(illegal, k)
		}
	}
	if len(illegal) > 0 {
		sort.Strings(illegal)
		return &SchemaError{Path: path, Keys: illegal, Reason: "illegal key(s) present"}
	}

	for _, k := range allowedKeys {
		val, present := node[k]
		if !present || val == nil {
			return &SchemaError{
				Path:   path,
				Keys:   []string{k},
				Reason: fmt.Sprintf("missing or null required field %q", k),
			}
		}
	}

	children, ok := node["children"].([]interface{})
	if !ok {
		return &SchemaError{Path: path, Keys: []string{"children"}, Reason: `field "children" is not a list`}
	}
	for i, child := range children {
		if err := validateNode(child, fmt.Sprintf("%s -> children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// FromMap builds a tree from a mapping, lower-casing keys first so
// Label/LABEL/label are all accepted. It trusts its input structurally
// (unknown keys were rejected by validation upstream); value type
// failures come back as *BuildError wrapping the cause and the node.
func FromMap(node map[string]interface{}) (*MindMap, error) {
	lowered := lowerKeys(node).(map[string]interface{})
	tree, err := buildNode(lowered)
	if err != nil {
		return nil, &BuildError{Node: lowered, Err: err}
	}
	return tree, nil
}

// FromJSON unmarshals serialized tree JSON and builds it, restoring the
// canonical export shape produced by ToJSON.
func FromJSON(data []byte) (*MindMap, error) {
	var node map[string]interface{}
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree JSON: %w", err)
	}
	return FromMap(node)
}

func buildNode(node map[string]interface{}) (*MindMap, error) {
	for k := range node {
		if !builderKeys[k] {
			return nil, fmt.Errorf("unexpected field %q", k)
		}
	}

	m := &MindMap{}

	label, ok := node["label"].(string)
	if !ok {
		return nil, fmt.Errorf("field \"label\" is not a string (got %T)", node["label"])
	}
	m.Label = label

	id, err := toInt(node["node"])
	if err != nil {
		return nil, fmt.Errorf("field \"node\": %w", err)
	}
	m.Node = id

	if s, present := node["summary"]; present && s != nil {
		summary, ok := s.(string)
		if !ok {
			return nil, fmt.Errorf("field \"summary\" is not a string (got %T)", s)
		}
		m.Summary = summary
	}

	// Absent children means leaf, never an error.
	if c, present := node["children"]; present && c != nil {
		children, ok := c.([]interface{})
		if !ok {
			return nil, fmt.Errorf("field \"children\" is not a list (got %T)", c)
		}
		for i, childVal := range children {
			childMap, ok := childVal.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("children[%d] is not a mapping (got %T)", i, childVal)
			}
			child, err := buildNode(childMap)
			if err != nil {
				return nil, err
			}
			m.Children = append(m.Children, child)
		}
	}

	if k, present := node["keywords"]; present && k != nil {
		raw, ok := k.([]interface{})
		if !ok {
			return nil, fmt.Errorf("field \"keywords\" is not a list (got %T)", k)
		}
		for i, kw := range raw {
			s, ok := kw.(string)
			if !ok {
				return nil, fmt.Errorf("keywords[%d] is not a string (got %T)", i, kw)
			}
			m.Keywords = append(m.Keywords, s)
		}
	}

	return m, nil
}

// toInt coerces the numeric types the JSON and YAML decoders produce.
func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", n.String())
		}
		return int(id), nil
	default:
		return 0, fmt.Errorf("value is not an integer (got %T)", v)
	}
}
