package editor

import (
	"fmt"
	"strings"
)

// ActionField is the submit button name carrying the requested action.
const ActionField = "_action"

// ActionKind enumerates form actions.
type ActionKind string

const (
	ActionSave     ActionKind = "save"
	ActionDraft    ActionKind = "draft"
	ActionGenerate ActionKind = "generate"
	ActionAdd      ActionKind = "add"
	ActionRemove   ActionKind = "remove"
	ActionUp       ActionKind = "up"
	ActionDown     ActionKind = "down"
)

// Action is a parsed _action value such as "remove:content.summary.1".
type Action struct {
	Kind ActionKind
	Path string
}

// Structural reports whether the action edits the form layout instead of
// submitting it.
func (a Action) Structural() bool {
	switch a.Kind {
	case ActionAdd, ActionRemove, ActionUp, ActionDown:
		return true
	}
	return false
}

// String renders the action in its form value encoding.
func (a Action) String() string {
	if a.Path == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.Path
}

// ParseAction decodes an _action value. An empty value means save, which is
// what pressing enter inside a text input submits.
func ParseAction(raw string) (Action, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Action{Kind: ActionSave}, nil
	}
	kind, path, hasPath := strings.Cut(trimmed, ":")
	action := Action{Kind: ActionKind(strings.ToLower(strings.TrimSpace(kind))), Path: strings.TrimSpace(path)}
	switch action.Kind {
	case ActionSave, ActionDraft, ActionGenerate:
		if hasPath {
			return Action{}, unknownAction(trimmed)
		}
		return action, nil
	case ActionAdd, ActionRemove, ActionUp, ActionDown:
		if action.Path == "" {
			return Action{}, fmt.Errorf("%w: %q requires a path", ErrUnknownAction, trimmed)
		}
		action.Path = JoinPath(SplitPath(action.Path)...)
		return action, nil
	}
	return Action{}, unknownAction(trimmed)
}

func unknownAction(raw string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}
