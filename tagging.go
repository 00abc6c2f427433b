package cfntheory

import (
	"slices"

	"github.com/theory-cloud/cfntheory/pkg/tags"
)

// TagManager records tags on a scope. At synthesis every taggable resource
// below the scope inherits them; tags set on an inner scope override the
// same key from an outer one.
type TagManager struct {
	node *Node
}

// Tags returns the tag manager for scope.
func Tags(scope Construct) *TagManager {
	return &TagManager{node: scope.Node()}
}

// Add sets key on the scope, replacing an earlier value for the same key.
func (m *TagManager) Add(key, value string) *TagManager {
	if i := slices.IndexFunc(m.node.tags, func(t tags.Tag) bool { return t.Key == key }); i >= 0 {
		m.node.tags[i].Value = value
		return m
	}
	m.node.tags = append(m.node.tags, tagOf(key, value))
	return m
}

// Remove drops key from this scope. Tags inherited from outer scopes are
// unaffected.
func (m *TagManager) Remove(key string) *TagManager {
	m.node.tags = slices.DeleteFunc(m.node.tags, func(t tags.Tag) bool { return t.Key == key })
	return m
}

// List returns the tags set directly on the scope.
func (m *TagManager) List() tags.List {
	return slices.Clone(m.node.tags)
}

// inheritedTags collects scope tags from the root down to n.
func inheritedTags(n *Node) tags.List {
	var out tags.List
	for _, s := range n.Scopes() {
		for _, t := range s.tags {
			if i := slices.IndexFunc(out, func(o tags.Tag) bool { return o.Key == t.Key }); i >= 0 {
				out[i].Value = t.Value
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

func tagOf(key, value string) tags.Tag {
	return tags.Tag{Key: key, Value: value}
}

func sortedTagKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
