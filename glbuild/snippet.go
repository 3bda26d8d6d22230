package glbuild

import (
	"errors"
	"slices"
	"strconv"
	"sync/atomic"
)

// snippetIDs is the process-wide snippet id counter. Snippets are mostly
// package level library data so their ids must be unique across allocators.
var snippetIDs atomic.Uint64

// ErrCycle is returned (wrapped in a [*CycleError]) when a snippet
// transitively depends on itself.
var ErrCycle = errors.New("snippet dependency cycle")

var errNilSnippet = errors.New("nil snippet")

// Snippet is a piece of GLSL source with an ordered list of snippets it depends on.
// Identity is by construction: two snippets with identical source are distinct
// and will both be emitted when flattened.
//
//	a := NewSnippet("A")
//	b := NewSnippet("B", a)
//	c := NewSnippet("C", a)
//	d := NewSnippet("D", b, c)
//	d.String() // "ABCD"
type Snippet struct {
	id     uint64
	source string
	deps   []*Snippet
}

// NewSnippet creates a snippet with the given source and dependencies.
// Dependencies are emitted before source in the order they are passed.
func NewSnippet(source string, deps ...*Snippet) *Snippet {
	return &Snippet{
		id:     snippetIDs.Add(1),
		source: source,
		deps:   slices.Clone(deps),
	}
}

// ID returns the snippet's unique id.
func (s *Snippet) ID() uint64 { return s.id }

// Source returns the snippet's own source text, excluding dependencies.
func (s *Snippet) Source() string { return s.source }

// Dependencies returns a copy of the snippet's direct dependencies.
func (s *Snippet) Dependencies() []*Snippet { return slices.Clone(s.deps) }

// AddDependency appends dependencies to the snippet. It must only be called
// while the snippet is being built, before it is shared with other snippets or programs.
func (s *Snippet) AddDependency(deps ...*Snippet) {
	s.deps = append(s.deps, deps...)
}

// String returns the flattened source of the snippet and all of its dependencies.
// If the snippet graph is malformed the error message is returned instead.
func (s *Snippet) String() string {
	b, err := Flatten(nil, s)
	if err != nil {
		return err.Error()
	}
	return string(b)
}

// Flatten appends the source of root and all of its transitive dependencies
// to dst such that every dependency precedes its dependents and every
// distinct snippet is emitted exactly once.
func Flatten(dst []byte, root *Snippet) ([]byte, error) {
	return FlattenAll(dst, root)
}

// FlattenAll is like [Flatten] but flattens several roots sharing a single
// visited set, so snippets shared between roots are emitted once.
func FlattenAll(dst []byte, roots ...*Snippet) ([]byte, error) {
	f := flattener{state: make(map[uint64]visitState)}
	var err error
	for _, root := range roots {
		dst, err = f.flatten(dst, root)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

type flattener struct {
	state map[uint64]visitState
	stack []uint64
}

func (f *flattener) flatten(dst []byte, s *Snippet) (_ []byte, err error) {
	if s == nil {
		return dst, errNilSnippet
	}
	switch f.state[s.id] {
	case visited:
		return dst, nil // Dependencies were emitted on first visit.
	case visiting:
		return dst, f.cycle(s.id)
	}
	f.state[s.id] = visiting
	f.stack = append(f.stack, s.id)
	for _, dep := range s.deps {
		dst, err = f.flatten(dst, dep)
		if err != nil {
			return dst, err
		}
	}
	dst = append(dst, s.source...)
	f.stack = f.stack[:len(f.stack)-1]
	f.state[s.id] = visited
	return dst, nil
}

func (f *flattener) cycle(id uint64) error {
	start := slices.Index(f.stack, id)
	path := append(slices.Clone(f.stack[start:]), id)
	return &CycleError{Path: path}
}

// CycleError describes a snippet dependency cycle by the ids of the snippets in it.
// The first and last ids of Path are the same snippet.
type CycleError struct {
	Path []uint64
}

func (e *CycleError) Error() string {
	b := []byte(ErrCycle.Error())
	b = append(b, ':', ' ')
	for i, id := range e.Path {
		if i > 0 {
			b = append(b, " -> "...)
		}
		b = strconv.AppendUint(b, id, 10)
	}
	return string(b)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// AppendUniqueSnippets appends the snippets of src to dst that are not yet in dst.
func AppendUniqueSnippets(dst []*Snippet, src ...*Snippet) []*Snippet {
	for _, s := range src {
		if s == nil {
			continue
		}
		if !slices.ContainsFunc(dst, func(d *Snippet) bool { return d.id == s.id }) {
			dst = append(dst, s)
		}
	}
	return dst
}
