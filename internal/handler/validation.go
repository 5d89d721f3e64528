package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/segyhp/coop-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Validator wraps validator.Validate with the types used by request DTOs.
// Decimals validate as float64 and UUIDs as strings, so the standard gt,
// gte and required tags apply to them.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
			return id.String()
		}
		return ""
	}, uuid.UUID{})

	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

// FieldErrors maps validation failures to field -> readable message
func FieldErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = "is required"
		case "gt":
			out[field] = "must be greater than " + e.Param()
		case "gte":
			out[field] = "must be greater than or equal to " + e.Param()
		case "max":
			out[field] = "must be at most " + e.Param() + " characters"
		case "oneof":
			out[field] = "must be one of: " + e.Param()
		case "datetime":
			out[field] = "must be a date formatted as " + e.Param()
		default:
			out[field] = e.Tag() + " validation failed"
		}
	}
	return out
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes the
// error response itself and reports false when the request must stop.
func (cv *Validator) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := cv.Validate(dst); err != nil {
		response.ValidationFailed(w, FieldErrors(err))
		return false
	}
	return true
}

// pathUUID parses the named route variable as a UUID
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
