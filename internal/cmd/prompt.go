package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-vitalpress/pkg/editor"
	"github.com/goliatone/go-vitalpress/pkg/post"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("aborted")

// prompter abstracts the terminal so the post wizard can be scripted in
// tests.
type prompter interface {
	Input(ctx context.Context, message, def string, required bool) (string, error)
	Select(ctx context.Context, message string, options []string, def string) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Multiline(ctx context.Context, message string) (string, error)
}

var newPrompter = func() prompter { return surveyPrompter{} }

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, message, def string, required bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return strings.TrimSpace(out), nil
}

func (surveyPrompter) Select(ctx context.Context, message string, options []string, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Select{Message: message, Options: options, PageSize: len(options)}
	if def != "" {
		prompt.Default = def
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Multiline(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	if err := survey.AskOne(&survey.Multiline{Message: message, Help: "Markdown. Finish with an empty line."}, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return strings.TrimSpace(out), nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

// collectPost walks the editor through a new post: title, position and
// byline first, then any number of summary points and body sections.
func collectPost(ctx context.Context, p prompter) (*editor.Editor, error) {
	ed := editor.Blank()
	set := func(path, value string) error {
		if err := ed.Set(path, value); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}

	title, err := p.Input(ctx, "Title", "", true)
	if err != nil {
		return nil, err
	}
	if err := set("title", title); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(post.Positions()))
	byLabel := make(map[string]post.Position, len(labels))
	for _, position := range post.Positions() {
		labels = append(labels, position.Label())
		byLabel[position.Label()] = position
	}
	label, err := p.Select(ctx, "Position", labels, post.PositionLatest.Label())
	if err != nil {
		return nil, err
	}
	if err := set("position", string(byLabel[label])); err != nil {
		return nil, err
	}

	for _, field := range []struct{ path, message string }{
		{"meta.author", "Author"},
		{"meta.reviewer", "Medical reviewer"},
		{"image", "Image URL"},
	} {
		value, err := p.Input(ctx, field.message, "", false)
		if err != nil {
			return nil, err
		}
		if err := set(field.path, value); err != nil {
			return nil, err
		}
	}

	if err := repeat(ctx, p, editor.PathSummary, "Add a summary point?", ed, func(prefix string) error {
		title, err := p.Input(ctx, "Point title", "", false)
		if err != nil {
			return err
		}
		text, err := p.Input(ctx, "Point text", "", true)
		if err != nil {
			return err
		}
		if err := set(prefix+".title", title); err != nil {
			return err
		}
		return set(prefix+".text", text)
	}); err != nil {
		return nil, err
	}

	if err := repeat(ctx, p, editor.PathBody, "Add a body section?", ed, func(prefix string) error {
		headline, err := p.Input(ctx, "Headline", "", true)
		if err != nil {
			return err
		}
		content, err := p.Multiline(ctx, "Content")
		if err != nil {
			return err
		}
		keywords, err := p.Input(ctx, "Keywords (comma separated)", "", false)
		if err != nil {
			return err
		}
		if err := set(prefix+".headline", headline); err != nil {
			return err
		}
		if err := set(prefix+".content", content); err != nil {
			return err
		}
		return set(prefix+".keywords", keywords)
	}); err != nil {
		return nil, err
	}
	return ed, nil
}

// repeat clears the collection at path, then adds one item per confirmed
// round and lets fill populate it.
func repeat(ctx context.Context, p prompter, path, question string, ed *editor.Editor, fill func(prefix string) error) error {
	for {
		n, err := ed.Len(path)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		if err := ed.Remove(fmt.Sprintf("%s.%d", path, n-1)); err != nil {
			return err
		}
	}
	for {
		more, err := p.Confirm(ctx, question, false)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		index, err := ed.Add(path)
		if err != nil {
			return err
		}
		if err := fill(fmt.Sprintf("%s.%d", path, index)); err != nil {
			return err
		}
	}
}
