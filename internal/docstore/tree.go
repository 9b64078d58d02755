package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Leaf is a single scalar JSON value stored at a full path.
type Leaf struct {
	Path  string
	Value json.RawMessage
}

// Snapshot is the complete state of a subtree at the time it was read.
type Snapshot struct {
	Path     string
	Value    json.RawMessage
	Children []Child
}

// Exists reports whether anything is stored at or below the snapshot path.
func (s Snapshot) Exists() bool {
	return len(s.Value) > 0 && !bytes.Equal(s.Value, nullJSON)
}

// Child is one direct child of a snapshot, in key order.
type Child struct {
	Key   string
	Value json.RawMessage
}

// Decode unmarshals the child value into v.
func (c Child) Decode(v any) error {
	return json.Unmarshal(c.Value, v)
}

var nullJSON = json.RawMessage("null")

// Flatten converts value into the leaves stored below root. Objects recurse,
// arrays become index-keyed objects, and null or empty containers produce no
// leaves at all.
func Flatten(root string, value any) ([]Leaf, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}

	var leaves []Leaf
	if err := flatten(root, v, &leaves); err != nil {
		return nil, err
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Path < leaves[j].Path })
	return leaves, nil
}

func flatten(p string, v any, out *[]Leaf) error {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, child := range t {
			if err := validateSegment(k); err != nil {
				return fmt.Errorf("%w: key %q: %v", ErrInvalidPath, k, err)
			}
			if err := flatten(p+"/"+k, child, out); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, child := range t {
			if err := flatten(p+"/"+strconv.Itoa(i), child, out); err != nil {
				return err
			}
		}
		return nil
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode leaf %s: %w", p, err)
		}
		*out = append(*out, Leaf{Path: p, Value: raw})
		return nil
	}
}

// Build reassembles the leaves at or below root into a snapshot.
func Build(root string, leaves []Leaf) (Snapshot, error) {
	snap := Snapshot{Path: root, Value: nullJSON}
	if len(leaves) == 0 {
		return snap, nil
	}

	tree := make(map[string]any)
	for _, leaf := range leaves {
		if leaf.Path == root {
			// A scalar at the root shadows anything recorded beneath it.
			snap.Value = leaf.Value
			return snap, nil
		}
		rel, ok := strings.CutPrefix(leaf.Path, root+"/")
		if !ok {
			continue
		}
		insert(tree, strings.Split(rel, "/"), leaf.Value)
	}

	value, err := json.Marshal(tree)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode snapshot %s: %w", root, err)
	}
	snap.Value = value

	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap.Children = make([]Child, 0, len(keys))
	for _, k := range keys {
		raw, err := json.Marshal(tree[k])
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to encode child %s/%s: %w", root, k, err)
		}
		snap.Children = append(snap.Children, Child{Key: k, Value: raw})
	}
	return snap, nil
}

func insert(node map[string]any, segs []string, value json.RawMessage) {
	for _, seg := range segs[:len(segs)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
	last := segs[len(segs)-1]
	if _, isMap := node[last].(map[string]any); isMap {
		return
	}
	node[last] = value
}

// Ancestors returns every proper ancestor of p, nearest last.
func Ancestors(p string) []string {
	segs := strings.Split(p, "/")
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}
