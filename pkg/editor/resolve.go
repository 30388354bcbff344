package editor

import "github.com/goliatone/go-vitalpress/pkg/post"

type ref struct {
	text     *string
	keywords *[]string
	position *post.Position
	items    collection
}

func (e *Editor) resolve(path string) (ref, error) {
	return e.resolveSegments(path, SplitPath(path))
}

func (e *Editor) resolveSegments(path string, segments []string) (ref, error) {
	if len(segments) == 0 {
		return ref{}, invalidPath(path)
	}
	p := &e.post
	head, rest := segments[0], segments[1:]
	switch head {
	case "id":
		return leaf(path, rest, ref{text: &p.ID})
	case "title":
		return leaf(path, rest, ref{text: &p.Title})
	case "image":
		return leaf(path, rest, ref{text: &p.Image})
	case "position":
		return leaf(path, rest, ref{position: &p.Position})
	case "meta":
		return resolveMeta(path, rest, &p.Meta)
	case "content":
		return resolveContent(path, rest, &p.Content)
	case "related_studies":
		items := slice[post.RelatedStudy]{items: &p.RelatedStudies}
		return resolveList(path, rest, items, func(i int, field string) (ref, bool) {
			study := &p.RelatedStudies[i]
			switch field {
			case "title":
				return ref{text: &study.Title}, true
			case "link":
				return ref{text: &study.Link}, true
			}
			return ref{}, false
		})
	}
	return ref{}, invalidPath(path)
}

func resolveMeta(path string, segments []string, meta *post.Meta) (ref, error) {
	if len(segments) != 1 {
		return ref{}, invalidPath(path)
	}
	switch segments[0] {
	case "author":
		return ref{text: &meta.Author}, nil
	case "date":
		return ref{text: &meta.Date}, nil
	case "reviewer":
		return ref{text: &meta.Reviewer}, nil
	case "readTime":
		return ref{text: &meta.ReadTime}, nil
	}
	return ref{}, invalidPath(path)
}

func resolveContent(path string, segments []string, content *post.Content) (ref, error) {
	if len(segments) == 0 {
		return ref{}, invalidPath(path)
	}
	head, rest := segments[0], segments[1:]
	switch head {
	case "summary":
		items := slice[post.SummaryItem]{items: &content.Summary}
		return resolveList(path, rest, items, func(i int, field string) (ref, bool) {
			item := &content.Summary[i]
			switch field {
			case "title":
				return ref{text: &item.Title}, true
			case "text":
				return ref{text: &item.Text}, true
			}
			return ref{}, false
		})
	case "body":
		items := slice[post.BodySection]{items: &content.Body, blank: blankSection}
		if len(rest) == 0 {
			return ref{items: items}, nil
		}
		index, ok := parseIndex(rest[0])
		if !ok {
			return ref{}, invalidPath(path)
		}
		if index >= len(content.Body) {
			return ref{}, outOfRange(path, index, len(content.Body))
		}
		return resolveSection(path, rest[1:], &content.Body[index])
	}
	return ref{}, invalidPath(path)
}

func resolveSection(path string, segments []string, section *post.BodySection) (ref, error) {
	if len(segments) == 0 {
		return ref{}, invalidPath(path)
	}
	head, rest := segments[0], segments[1:]
	switch head {
	case "headline":
		return leaf(path, rest, ref{text: &section.Headline})
	case "content":
		return leaf(path, rest, ref{text: &section.Content})
	case "keywords":
		return leaf(path, rest, ref{keywords: &section.Keywords})
	case "subsections":
		items := slice[post.Subsection]{items: &section.Subsections}
		return resolveList(path, rest, items, func(i int, field string) (ref, bool) {
			sub := &section.Subsections[i]
			switch field {
			case "subheading":
				return ref{text: &sub.Subheading}, true
			case "content":
				return ref{text: &sub.Content}, true
			}
			return ref{}, false
		})
	case "hyperlinks":
		items := slice[post.Hyperlink]{items: &section.Hyperlinks}
		return resolveList(path, rest, items, func(i int, field string) (ref, bool) {
			link := &section.Hyperlinks[i]
			switch field {
			case "text":
				return ref{text: &link.Text}, true
			case "url":
				return ref{text: &link.URL}, true
			}
			return ref{}, false
		})
	}
	return ref{}, invalidPath(path)
}

// resolveList resolves a collection path or one field of one of its items.
// A bare item path is not a scalar and is rejected.
func resolveList(path string, segments []string, items collection, field func(int, string) (ref, bool)) (ref, error) {
	if len(segments) == 0 {
		return ref{items: items}, nil
	}
	if len(segments) != 2 {
		return ref{}, invalidPath(path)
	}
	index, ok := parseIndex(segments[0])
	if !ok {
		return ref{}, invalidPath(path)
	}
	if index >= items.length() {
		return ref{}, outOfRange(path, index, items.length())
	}
	out, ok := field(index, segments[1])
	if !ok {
		return ref{}, invalidPath(path)
	}
	return out, nil
}

func leaf(path string, rest []string, out ref) (ref, error) {
	if len(rest) != 0 {
		return ref{}, invalidPath(path)
	}
	return out, nil
}
