package calculators

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// System selects the measurement units of a BMI calculation.
type System string

const (
	Metric   System = "metric"
	Imperial System = "imperial"
)

// Category buckets a BMI value.
type Category string

const (
	Underweight Category = "underweight"
	Normal      Category = "normal"
	Overweight  Category = "overweight"
	Obese       Category = "obese"
)

// Label is the display form of the category.
func (c Category) Label() string {
	switch c {
	case Underweight:
		return "Underweight"
	case Normal:
		return "Normal weight"
	case Overweight:
		return "Overweight"
	case Obese:
		return "Obese"
	default:
		return ""
	}
}

// BMIInput holds weight in kg or lb and height in cm or in, depending on
// System.
type BMIInput struct {
	System System  `json:"system"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

// BMIResult is rounded to one decimal. Category is derived from the rounded
// value so the two never disagree on screen.
type BMIResult struct {
	Value    float64  `json:"value"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
}

// BMI computes the body mass index.
func BMI(in BMIInput) (BMIResult, error) {
	if in.System == "" {
		in.System = Metric
	}
	if in.System != Metric && in.System != Imperial {
		return BMIResult{}, invalid("system", "must be metric or imperial")
	}
	if !within(in.Weight, 1, 1000) {
		return BMIResult{}, invalid("weight", "must be between 1 and 1000")
	}
	if !within(in.Height, 1, 300) {
		return BMIResult{}, invalid("height", "must be between 1 and 300")
	}

	var value float64
	if in.System == Imperial {
		value = 703 * in.Weight / (in.Height * in.Height)
	} else {
		meters := in.Height / 100
		value = in.Weight / (meters * meters)
	}
	value = round1(value)
	category := categorize(value)
	return BMIResult{Value: value, Category: category, Label: category.Label()}, nil
}

func categorize(value float64) Category {
	switch {
	case value < 18.5:
		return Underweight
	case value < 25:
		return Normal
	case value < 30:
		return Overweight
	default:
		return Obese
	}
}

// ParseBMI reads a BMIInput from form or query values.
func ParseBMI(values url.Values) (BMIInput, error) {
	weight, err := parseFloat(values, "weight")
	if err != nil {
		return BMIInput{}, err
	}
	height, err := parseFloat(values, "height")
	if err != nil {
		return BMIInput{}, err
	}
	return BMIInput{
		System: System(strings.ToLower(strings.TrimSpace(values.Get("system")))),
		Weight: weight,
		Height: height,
	}, nil
}

func parseFloat(values url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, invalid(name, "is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, invalid(name, "must be a number")
	}
	return value, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// within reports lo <= x <= hi. NaN and infinities outside the bounds fail.
func within(x, lo, hi float64) bool {
	return x >= lo && x <= hi
}
