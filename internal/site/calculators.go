package site

import (
	"net/http"
	"net/url"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/pkg/calculators"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/orchestrator"
	"github.com/goliatone/go-vitalpress/pkg/render"
)

var (
	bmiFields      = []string{"system", "weight", "height"}
	caloriesFields = []string{"sex", "age", "weight", "height", "activity", "goal"}
)

func (s *Server) handleBMI(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := map[string]any{
		"title":      "BMI calculator",
		"calculator": "bmi",
		"intro":      "Body mass index relates weight to height. It is a screening number, not a diagnosis.",
	}
	var fieldErrors map[string][]string
	if submitted(query, bmiFields) {
		result, err := bmiFromQuery(query)
		if err != nil {
			fieldErrors = calculators.FieldErrors(err)
		} else {
			data["bmi"] = result
		}
	}
	s.renderCalculator(w, r, contract.OpBMI, bmiFields, fieldErrors, data)
}

func bmiFromQuery(query url.Values) (calculators.BMIResult, error) {
	in, err := calculators.ParseBMI(query)
	if err != nil {
		return calculators.BMIResult{}, err
	}
	return calculators.BMI(in)
}

func (s *Server) handleCalories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := map[string]any{
		"title":      "Calorie calculator",
		"calculator": "calories",
		"intro":      "Estimate your daily energy needs with the Mifflin-St Jeor equation.",
	}
	var fieldErrors map[string][]string
	if submitted(query, caloriesFields) {
		result, err := caloriesFromQuery(query)
		if err != nil {
			fieldErrors = calculators.FieldErrors(err)
		} else {
			data["calories"] = result
		}
	}
	s.renderCalculator(w, r, contract.OpCalories, caloriesFields, fieldErrors, data)
}

func caloriesFromQuery(query url.Values) (calculators.CaloriesResult, error) {
	in, err := calculators.ParseCalories(query)
	if err != nil {
		return calculators.CaloriesResult{}, err
	}
	return calculators.Calories(in)
}

// renderCalculator renders the contract form as a GET form so results are
// bookmarkable, then wraps it in the calculator page.
func (s *Server) renderCalculator(w http.ResponseWriter, r *http.Request, opID string, fields []string, fieldErrors map[string][]string, data map[string]any) {
	query := r.URL.Query()
	values := make(map[string]any, len(fields))
	for _, name := range fields {
		if value := query.Get(name); value != "" {
			values[name] = value
		}
	}
	status := http.StatusOK
	if len(fieldErrors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	form, err := s.forms.Generate(r.Context(), orchestrator.Request{
		Source:      pkgopenapi.SourceFromFS(contract.Calculators),
		OperationID: opID,
		RenderOptions: render.RenderOptions{
			Method: http.MethodGet,
			Action: r.URL.Path,
			Values: values,
			Errors: fieldErrors,
		},
		ThemeName:    s.themeName,
		ThemeVariant: s.variantFor(r),
	})
	if err != nil {
		s.logger.Error("calculator form", "operation", opID, "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Calculator unavailable", "The calculator could not be displayed.")
		return
	}
	data["form"] = string(form)
	s.render(w, r, status, "pages/calculator", data)
}

// submitted reports whether any calculator input is present in query.
func submitted(query url.Values, fields []string) bool {
	for _, name := range fields {
		if query.Has(name) {
			return true
		}
	}
	return false
}
