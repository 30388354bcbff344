package calculators

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

type Sex string

const (
	Female Sex = "female"
	Male   Sex = "male"
)

type Activity string

const (
	Sedentary  Activity = "sedentary"
	Light      Activity = "light"
	Moderate   Activity = "moderate"
	Active     Activity = "active"
	VeryActive Activity = "very-active"
)

var activityFactors = map[Activity]float64{
	Sedentary:  1.2,
	Light:      1.375,
	Moderate:   1.55,
	Active:     1.725,
	VeryActive: 1.9,
}

type Goal string

const (
	Lose     Goal = "lose"
	Maintain Goal = "maintain"
	Gain     Goal = "gain"
)

var goalAdjustments = map[Goal]float64{
	Lose:     -500,
	Maintain: 0,
	Gain:     500,
}

// Minimum daily intake for the lose goal.
const (
	FemaleFloor = 1200
	MaleFloor   = 1500
)

// CaloriesInput is metric: weight in kg, height in cm.
type CaloriesInput struct {
	Sex      Sex      `json:"sex"`
	Age      int      `json:"age"`
	Weight   float64  `json:"weight"`
	Height   float64  `json:"height"`
	Activity Activity `json:"activity"`
	Goal     Goal     `json:"goal"`
}

// CaloriesResult reports whole kcal values.
type CaloriesResult struct {
	BMR         int  `json:"bmr"`
	Maintenance int  `json:"maintenance"`
	Target      int  `json:"target"`
	Floored     bool `json:"floored"`
}

// Calories estimates daily energy needs with the Mifflin-St Jeor equation.
func Calories(in CaloriesInput) (CaloriesResult, error) {
	if in.Activity == "" {
		in.Activity = Moderate
	}
	if in.Goal == "" {
		in.Goal = Maintain
	}

	var offset float64
	switch in.Sex {
	case Male:
		offset = 5
	case Female:
		offset = -161
	default:
		return CaloriesResult{}, invalid("sex", "must be female or male")
	}
	if in.Age < 15 || in.Age > 100 {
		return CaloriesResult{}, invalid("age", "must be between 15 and 100")
	}
	if !within(in.Weight, 30, 300) {
		return CaloriesResult{}, invalid("weight", "must be between 30 and 300")
	}
	if !within(in.Height, 120, 250) {
		return CaloriesResult{}, invalid("height", "must be between 120 and 250")
	}
	factor, ok := activityFactors[in.Activity]
	if !ok {
		return CaloriesResult{}, invalid("activity", "is not a known activity level")
	}
	adjustment, ok := goalAdjustments[in.Goal]
	if !ok {
		return CaloriesResult{}, invalid("goal", "must be lose, maintain or gain")
	}

	bmr := 10*in.Weight + 6.25*in.Height - 5*float64(in.Age) + offset
	maintenance := bmr * factor
	target := maintenance + adjustment

	result := CaloriesResult{
		BMR:         int(math.Round(bmr)),
		Maintenance: int(math.Round(maintenance)),
		Target:      int(math.Round(target)),
	}
	if in.Goal == Lose {
		floor := FemaleFloor
		if in.Sex == Male {
			floor = MaleFloor
		}
		if result.Target < floor {
			result.Target = floor
			result.Floored = true
		}
	}
	return result, nil
}

// ParseCalories reads a CaloriesInput from form or query values.
func ParseCalories(values url.Values) (CaloriesInput, error) {
	rawAge := strings.TrimSpace(values.Get("age"))
	if rawAge == "" {
		return CaloriesInput{}, invalid("age", "is required")
	}
	age, err := strconv.Atoi(rawAge)
	if err != nil {
		return CaloriesInput{}, invalid("age", "must be a whole number")
	}
	weight, err := parseFloat(values, "weight")
	if err != nil {
		return CaloriesInput{}, err
	}
	height, err := parseFloat(values, "height")
	if err != nil {
		return CaloriesInput{}, err
	}
	return CaloriesInput{
		Sex:      Sex(strings.ToLower(strings.TrimSpace(values.Get("sex")))),
		Age:      age,
		Weight:   weight,
		Height:   height,
		Activity: Activity(strings.ToLower(strings.TrimSpace(values.Get("activity")))),
		Goal:     Goal(strings.ToLower(strings.TrimSpace(values.Get("goal")))),
	}, nil
}
