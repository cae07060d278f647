package render

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(useJSONTagNames)
	return v
}

// Report 'json' tag names in errors instead of struct field names
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

var passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)

// Letters, digits and @$!%*?& only
func validatePassword(fl validator.FieldLevel) bool {
	return passwordCharset.MatchString(fl.Field().String())
}
