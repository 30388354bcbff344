package calculators

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type dataResponse struct {
	Data any `json:"data"`
}

// Handler builds the JSON handler with default options plus overrides.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions dispatches on the last path segment: bmi or calories.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		var (
			result any
			err    error
		)
		switch path.Base(r.URL.Path) {
		case "bmi":
			var in BMIInput
			if in, err = ParseBMI(r.URL.Query()); err == nil {
				result, err = BMI(in)
			}
		case "calories":
			var in CaloriesInput
			if in, err = ParseCalories(r.URL.Query()); err == nil {
				result, err = Calories(in)
			}
		default:
			http.NotFound(w, r)
			return
		}

		if err != nil {
			body := errorResponse{Error: err.Error()}
			var inputErr *InputError
			if errors.As(err, &inputErr) {
				body = errorResponse{Error: inputErr.Message, Field: inputErr.Field}
			}
			writeJSON(w, r, http.StatusBadRequest, body)
			return
		}
		writeJSON(w, r, http.StatusOK, dataResponse{Data: result})
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if c := httpErr.StatusCode(); c > 0 {
			code = c
		}
	}
	http.Error(w, http.StatusText(code), code)
}
