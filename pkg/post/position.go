package post

import (
	"fmt"
	"strings"
)

// Position selects the page slot a post renders into.
type Position string

const (
	PositionHero         Position = "hero"
	PositionFeatured     Position = "featured"
	PositionTrending     Position = "trending"
	PositionLatest       Position = "latest"
	PositionEditorsPick  Position = "editors-pick"
	PositionNutrition    Position = "nutrition"
	PositionSleep        Position = "sleep"
	PositionMentalHealth Position = "mental-health"
	PositionFitness      Position = "fitness"
	PositionReviews      Position = "reviews"
)

var positions = []Position{
	PositionHero,
	PositionFeatured,
	PositionTrending,
	PositionLatest,
	PositionEditorsPick,
	PositionNutrition,
	PositionSleep,
	PositionMentalHealth,
	PositionFitness,
	PositionReviews,
}

var positionLabels = map[Position]string{
	PositionHero:         "Hero",
	PositionFeatured:     "Featured",
	PositionTrending:     "Trending",
	PositionLatest:       "Latest",
	PositionEditorsPick:  "Editor's Pick",
	PositionNutrition:    "Nutrition",
	PositionSleep:        "Sleep",
	PositionMentalHealth: "Mental Health",
	PositionFitness:      "Fitness",
	PositionReviews:      "Product Reviews",
}

// Positions returns every known slot in display order.
func Positions() []Position {
	return append([]Position(nil), positions...)
}

// Valid reports whether p is one of the known slots.
func (p Position) Valid() bool {
	_, ok := positionLabels[p]
	return ok
}

// Label returns a human friendly name for the slot.
func (p Position) Label() string {
	if label, ok := positionLabels[p]; ok {
		return label
	}
	return string(p)
}

func (p Position) String() string {
	return string(p)
}

// ParsePosition normalises raw input (case, spaces, underscores) into a known
// Position.
func ParsePosition(raw string) (Position, error) {
	candidate := strings.ToLower(strings.TrimSpace(raw))
	candidate = strings.NewReplacer("_", "-", " ", "-").Replace(candidate)
	if candidate == "editors-choice" || candidate == "editorspick" {
		candidate = string(PositionEditorsPick)
	}
	p := Position(candidate)
	if !p.Valid() {
		return "", fmt.Errorf("post: unknown position %q", raw)
	}
	return p, nil
}
