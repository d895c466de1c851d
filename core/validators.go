package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	weekdayTag  = "weekday"
	weekdayText = "{0} must be a weekday between 0 (Monday) and 6 (Sunday)"

	dayMinuteTag  = "daymin"
	dayMinuteText = "{0} must be a number of minutes between 0 and 1440"

	dateTag  = "date"
	dateText = "{0} must be a date formatted as YYYY-MM-DD"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	gtFieldTag  = "gtfield"
	gtFieldText = "{0} must be after {1}"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	_ = validate.RegisterValidation(dayMinuteTag, dayMinuteValidation)
	RegisterCustomTranslation(validate, translator, dayMinuteTag, dayMinuteText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, gtFieldTag, gtFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// `{0}` is replaced by the field name and `{1}` by the tag param.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// weekdayValidation accepts Monday-first weekday indexes.
func weekdayValidation(fl validator.FieldLevel) bool {
	day := fl.Field().Int()
	return day >= 0 && day <= 6
}

func dayMinuteValidation(fl validator.FieldLevel) bool {
	min := fl.Field().Int()
	return min >= 0 && min <= 24*60
}

func dateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
