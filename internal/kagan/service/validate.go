package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/go-playground/validator/v10"
)

// phonePattern accepts Iranian mobile (09xxxxxxxxx) and landline (0xxxxxxxxxx)
// numbers once spaces and dashes are removed.
var phonePattern = regexp.MustCompile(`^0\d{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their `name` tag so messages match CLI flags and seed keys.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("name"); name != "" {
			return name
		}
		return fld.Name
	})

	_ = v.RegisterValidation("phone_ir", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(NormalizePhone(fl.Field().String()))
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.TrimSpace(s) == s
	})
	return v
}

// NormalizePhone strips the separators operators commonly type.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(phone)
}

// validateStruct runs the struct tags of v and converts failures into
// ErrInvalidInput with per-field messages.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	e := ErrInvalidInput.with(err)
	e.Fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		e.Fields[fe.Field()] = fieldMessage(fe)
	}
	return e
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "الزامی است"
	case "max":
		return "حداکثر " + fe.Param() + " کاراکتر مجاز است"
	case "email":
		return "ایمیل معتبر نیست"
	case "phone_ir":
		return "شماره تلفن معتبر نیست"
	case "role":
		return "نقش نامعتبر است"
	case "trimmed":
		return "نباید با فاصله شروع یا تمام شود"
	}
	return "معتبر نیست"
}
