package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	dateRE = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)
)

// supportedLanguages are the languages sections and questions are authored in.
var supportedLanguages = map[string]bool{
	"en": true,
	"es": true,
}

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. The empty string is allowed so this validator can be used to clear
// out values; add `ne=` to the validate tag when the value is required.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// languageValidator ensures the value is a supported question language code.
func languageValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return supportedLanguages[value]
}
