// SPDX-License-Identifier: EPL-2.0

package annotation

import (
	"fmt"
	"slices"
)

// Unknown is the class index of annotations mapped to the unknown label.
const Unknown = -1

// LabelSet is the ordered set of canonical class names. A class index is a
// position in the set.
type LabelSet struct {
	names []string
	index map[string]int
}

// NewLabelSet rejects empty, blank and repeated names.
func NewLabelSet(names []string) (*LabelSet, error) {
	if len(names) == 0 {
		return nil, ErrEmptyLabelSet
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w at position %d", ErrBlankLabel, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, name)
		}
		index[name] = i
	}

	return &LabelSet{names: slices.Clone(names), index: index}, nil
}

// Len is the number of classes.
func (l *LabelSet) Len() int { return len(l.names) }

// Names returns a copy of the class names in index order.
func (l *LabelSet) Names() []string { return slices.Clone(l.names) }

// Name returns the name of class, or "unknown" for Unknown.
func (l *LabelSet) Name(class int) string {
	if class == Unknown {
		return "unknown"
	}
	return l.names[class]
}

// Index looks up the class index of name.
func (l *LabelSet) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Mapping maps raw annotation strings to canonical class names. Several raw
// labels may share a canonical name; raw labels absent from the mapping are
// dropped.
type Mapping map[string]string

// Resolver turns raw labels into class indexes.
type Resolver struct {
	labels  *LabelSet
	mapping Mapping
	unknown string
}

// NewResolver binds a mapping to a label set. unknownLabel may be empty when
// the corpus has no unknown class.
func NewResolver(labels *LabelSet, mapping Mapping, unknownLabel string) (*Resolver, error) {
	if unknownLabel != "" {
		if _, ok := labels.Index(unknownLabel); ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownInLabelSet, unknownLabel)
		}
	}

	return &Resolver{labels: labels, mapping: mapping, unknown: unknownLabel}, nil
}

func (r *Resolver) Labels() *LabelSet { return r.labels }

// Resolve returns the class index of a raw label, Unknown for labels mapped
// to the unknown label, and false for labels to drop.
func (r *Resolver) Resolve(raw string) (int, bool) {
	mapped, ok := r.mapping[raw]
	if !ok {
		return 0, false
	}
	if r.unknown != "" && mapped == r.unknown {
		return Unknown, true
	}

	return r.labels.Index(mapped)
}
