package editor

import (
	"slices"
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// Editor owns a working copy of a post while the admin form is being edited.
type Editor struct {
	post post.Post
}

// New returns an editor seeded with a deep copy of p.
func New(p post.Post) *Editor {
	draft := p.Clone()
	post.Normalize(&draft)
	return &Editor{post: draft}
}

// Blank returns an editor for a new post with one empty body section, which
// is how the admin "new post" screen starts.
func Blank() *Editor {
	ed := New(post.Post{})
	_, _ = ed.Add(PathBody)
	return ed
}

// Post returns a deep copy of the current draft.
func (e *Editor) Post() post.Post {
	return e.post.Clone()
}

// Set assigns a scalar field. Keyword paths accept comma separated input.
func (e *Editor) Set(path, value string) error {
	ref, err := e.resolve(path)
	if err != nil {
		return err
	}
	switch {
	case ref.text != nil:
		*ref.text = value
	case ref.keywords != nil:
		*ref.keywords = post.SplitKeywords(value)
	case ref.position != nil:
		*ref.position = parsePosition(value)
	default:
		return invalidPath(path)
	}
	return nil
}

// Get reads a scalar field in its form representation.
func (e *Editor) Get(path string) (string, error) {
	ref, err := e.resolve(path)
	if err != nil {
		return "", err
	}
	switch {
	case ref.text != nil:
		return *ref.text, nil
	case ref.keywords != nil:
		return strings.Join(*ref.keywords, ", "), nil
	case ref.position != nil:
		return ref.position.String(), nil
	default:
		return "", invalidPath(path)
	}
}

// Len reports how many items a collection path holds.
func (e *Editor) Len(path string) (int, error) {
	ref, err := e.resolve(path)
	if err != nil {
		return 0, err
	}
	if ref.items == nil {
		return 0, invalidPath(path)
	}
	return ref.items.length(), nil
}

// Add appends an empty item to the collection at path and returns its index.
func (e *Editor) Add(path string) (int, error) {
	ref, err := e.resolve(path)
	if err != nil {
		return 0, err
	}
	if ref.items == nil {
		return 0, invalidPath(path)
	}
	return ref.items.add(), nil
}

// Remove deletes the item addressed by path (for example content.summary.2).
// Later siblings shift down by one.
func (e *Editor) Remove(path string) error {
	items, index, err := e.resolveItem(path)
	if err != nil {
		return err
	}
	items.remove(index)
	return nil
}

// Move shifts the item at path by delta positions. Moving past either end of
// the collection is a no-op.
func (e *Editor) Move(path string, delta int) error {
	items, index, err := e.resolveItem(path)
	if err != nil {
		return err
	}
	target := index + delta
	if delta == 0 || target < 0 || target >= items.length() {
		return nil
	}
	items.move(index, target)
	return nil
}

// Perform applies a structural action. Submit actions are rejected because
// they are handled by the caller.
func (e *Editor) Perform(action Action) error {
	switch action.Kind {
	case ActionAdd:
		_, err := e.Add(action.Path)
		return err
	case ActionRemove:
		return e.Remove(action.Path)
	case ActionUp:
		return e.Move(action.Path, -1)
	case ActionDown:
		return e.Move(action.Path, 1)
	default:
		return unknownAction(string(action.Kind))
	}
}

func (e *Editor) resolveItem(path string) (collection, int, error) {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return nil, 0, invalidPath(path)
	}
	index, ok := parseIndex(segments[len(segments)-1])
	if !ok {
		return nil, 0, invalidPath(path)
	}
	ref, err := e.resolveSegments(path, segments[:len(segments)-1])
	if err != nil {
		return nil, 0, err
	}
	if ref.items == nil {
		return nil, 0, invalidPath(path)
	}
	if index >= ref.items.length() {
		return nil, 0, outOfRange(path, index, ref.items.length())
	}
	return ref.items, index, nil
}

func parsePosition(raw string) post.Position {
	if position, err := post.ParsePosition(raw); err == nil {
		return position
	}
	return post.Position(strings.TrimSpace(raw))
}

type collection interface {
	length() int
	add() int
	remove(index int)
	move(from, to int)
}

type slice[T any] struct {
	items *[]T
	blank func() T
}

func (s slice[T]) length() int { return len(*s.items) }

func (s slice[T]) add() int {
	var item T
	if s.blank != nil {
		item = s.blank()
	}
	*s.items = append(*s.items, item)
	return len(*s.items) - 1
}

func (s slice[T]) remove(index int) {
	*s.items = slices.Delete(*s.items, index, index+1)
}

func (s slice[T]) move(from, to int) {
	item := (*s.items)[from]
	*s.items = slices.Insert(slices.Delete(*s.items, from, from+1), to, item)
}

func blankSection() post.BodySection {
	return post.BodySection{
		Subsections: []post.Subsection{},
		Hyperlinks:  []post.Hyperlink{},
		Keywords:    []string{},
	}
}
