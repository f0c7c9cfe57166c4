// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

// Path addresses a node by child indexes from the document root.
// The empty path is the root itself. Example: [1, 0] is the first child of
// the root's second child.
type Path []int

// Child returns a new path extending p by index i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// Parent returns the parent path and the index of p within its parent.
// The root has no parent; ok is false.
func (p Path) Parent() (parent Path, index int, ok bool) {
	if len(p) == 0 {
		return nil, 0, false
	}
	return p[:len(p)-1:len(p)-1], p[len(p)-1], true
}

// Prefix returns a new path made of prefix followed by p.
func (p Path) Prefix(prefix Path) Path {
	out := make(Path, 0, len(prefix)+len(p))
	out = append(out, prefix...)
	return append(out, p...)
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Position is a point inside a document: a node path and an offset within
// that node (a rune offset for text nodes, a child index otherwise).
type Position struct {
	Path   Path `json:"path"`
	Offset int  `json:"offset"`
}

// Selection is the editor cursor or range. It is not part of the document
// content: a transaction that only moves the selection leaves the document
// unchanged.
type Selection struct {
	Anchor Position `json:"anchor"`
	Head   Position `json:"head"`
}

// Cursor returns a collapsed selection at pos.
func Cursor(pos Position) Selection {
	return Selection{Anchor: pos, Head: pos}
}
