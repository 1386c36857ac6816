package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError detalle de un campo que no pasó la validación.
type FieldError struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

var validate = validator.New()

func init() {
	// decimal_gte0: montos no negativos (shopspring/decimal no es numérico para validator).
	_ = validate.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		switch v := fl.Field().Interface().(type) {
		case decimal.Decimal:
			return !v.IsNegative()
		case *decimal.Decimal:
			return v == nil || !v.IsNegative()
		}
		return false
	})
	_ = validate.RegisterValidation("sizes", validSizes)
}

// validSizes: cantidades > 0; la talla sintética "" solo sola; el resto de claves
// no vacías y distintas tras recortar espacios.
func validSizes(fl validator.FieldLevel) bool {
	m, ok := fl.Field().Interface().(map[string]int)
	if !ok {
		return false
	}
	seen := make(map[string]struct{}, len(m))
	for size, q := range m {
		if q <= 0 {
			return false
		}
		if size == "" {
			if len(m) > 1 {
				return false
			}
			continue
		}
		trimmed := strings.TrimSpace(size)
		if trimmed == "" {
			return false
		}
		if _, dup := seen[trimmed]; dup {
			return false
		}
		seen[trimmed] = struct{}{}
	}
	return true
}

// ValidateStruct valida data con los tags `validate` y devuelve un error por campo.
func ValidateStruct(data interface{}) []*FieldError {
	var errs []*FieldError
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []*FieldError{{FailedField: "body", Tag: err.Error()}}
	}
	for _, fe := range verrs {
		errs = append(errs, &FieldError{
			FailedField: fe.StructNamespace(),
			Tag:         fe.Tag(),
			Value:       fe.Param(),
		})
	}
	return errs
}

// Message resume los errores en una línea legible.
func Message(errs []*FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Value != "" {
			parts = append(parts, fmt.Sprintf("%s (%s=%s)", e.FailedField, e.Tag, e.Value))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", e.FailedField, e.Tag))
	}
	return strings.Join(parts, ", ")
}
