package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("isodate", "datetime=2006-01-02")
		validate = v
	})
	return validate
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResponse is the 422 body.
type ValidationResponse struct {
	Errors []FieldError `json:"errors"`
}

// validateRequest checks req and writes a 422 when it is invalid. It
// reports whether the handler may continue.
func validateRequest(w http.ResponseWriter, req any) bool {
	err := getValidator().Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Errors: out})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must have at least " + fe.Param() + " characters"
	case "alphanum":
		return field + " can only contain alphanumeric characters"
	case "email":
		return field + " does not appear to be valid"
	case "isodate", "datetime":
		return field + " is not valid"
	default:
		return field + " is invalid"
	}
}
