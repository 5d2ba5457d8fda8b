// Package store holds the placeholder values the user has typed, keyed by
// "templateID-placeholder". It is owned by a single session and is not safe for
// concurrent use.
package store

import (
	"strings"

	"github.com/dpshade/pocket-nodes/internal/models"
)

// TemplateResolver returns the ids of the templates a node owns
type TemplateResolver interface {
	TemplateIDs(nodeID string) []string
}

// ResolverFunc adapts a function to TemplateResolver
type ResolverFunc func(nodeID string) []string

// TemplateIDs calls f(nodeID)
func (f ResolverFunc) TemplateIDs(nodeID string) []string {
	return f(nodeID)
}

// InputStore maps input keys to raw user text
type InputStore struct {
	values   map[string]entry
	resolver TemplateResolver
}

// entry remembers which template a key was written for. Keys set through Set
// have no owner and are matched by prefix only.
type entry struct {
	template string
	value    string
}

// owns reports whether the key belongs to templateID. An id can be a prefix of
// another template's id ("security-" and "security-test-..."), so recorded
// owners win over the prefix.
func (e entry) owns(key, templateID string) bool {
	if e.template != "" {
		return e.template == templateID
	}
	return strings.HasPrefix(key, models.InputKeyPrefix(templateID))
}

// New creates an empty store. resolver may be nil, in which case ClearForNode
// only clears the template whose id equals the node id.
func New(resolver TemplateResolver) *InputStore {
	return &InputStore{
		values:   make(map[string]entry),
		resolver: resolver,
	}
}

// Set stores the raw value for key. Values are kept untrimmed.
func (s *InputStore) Set(key, value string) {
	s.values[key] = entry{value: value}
}

// SetInput stores the raw value for a template placeholder and records the owner
func (s *InputStore) SetInput(templateID, placeholder, value string) {
	s.values[models.InputKey(templateID, placeholder)] = entry{template: templateID, value: value}
}

// Get returns the value for key, or "" when nothing is stored
func (s *InputStore) Get(key string) string {
	return s.values[key].value
}

// Delete removes a single key
func (s *InputStore) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys
func (s *InputStore) Len() int {
	return len(s.values)
}

// HasInputs reports whether any placeholder of the template has a non-blank value
func (s *InputStore) HasInputs(templateID string) bool {
	for key, e := range s.values {
		if e.owns(key, templateID) && strings.TrimSpace(e.value) != "" {
			return true
		}
	}
	return false
}

// ClearTemplate removes every key of one template
func (s *InputStore) ClearTemplate(templateID string) {
	s.remove([]string{templateID})
}

// ClearForNode removes every key belonging to any template of the node. Keys of
// other nodes are left untouched.
func (s *InputStore) ClearForNode(nodeID string) {
	var ids []string
	if s.resolver != nil {
		ids = s.resolver.TemplateIDs(nodeID)
	} else {
		ids = []string{nodeID}
	}
	s.remove(ids)
}

// ClearAll empties the store
func (s *InputStore) ClearAll() {
	s.values = make(map[string]entry)
}

// Snapshot returns a copy of the stored values
func (s *InputStore) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(s.values))
	for k, e := range s.values {
		snapshot[k] = e.value
	}
	return snapshot
}

// SnapshotFor returns a copy of the values owned by one template. A key written
// for another template is left out even when its text reads as one of this
// template's keys.
func (s *InputStore) SnapshotFor(templateID string) map[string]string {
	snapshot := make(map[string]string)
	for k, e := range s.values {
		if e.owns(k, templateID) {
			snapshot[k] = e.value
		}
	}
	return snapshot
}

// remove swaps in a new map without the keys of the given templates, so a
// clear is observed as one transition.
func (s *InputStore) remove(templateIDs []string) {
	if len(templateIDs) == 0 {
		return
	}

	next := make(map[string]entry, len(s.values))
	for key, e := range s.values {
		if ownedByAny(key, e, templateIDs) {
			continue
		}
		next[key] = e
	}
	s.values = next
}

func ownedByAny(key string, e entry, templateIDs []string) bool {
	for _, id := range templateIDs {
		if e.owns(key, id) {
			return true
		}
	}
	return false
}
