// Package calculators implements the BMI and daily calorie calculators and a
// small net/http component that serves them as JSON.
//
// The handler answers GET and HEAD on <base>/api/calculators/bmi and
// <base>/api/calculators/calories. Inputs come from the query string and
// invalid values produce a 400 response with an {"error", "field"} body.
package calculators
