package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	mdyTag  = "mdy"
	mdyText = "{0} must be a month/day/year date"

	usernameTag  = "username"
	usernameText = "{0} must be a login without @ or spaces"

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// NewValidator returns a validator reporting field errors in English, using the `csv` tag names.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use CSV header names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("csv"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(mdyTag, mdyValidation)
	RegisterCustomTranslation(validate, translator, mdyTag, mdyText)

	_ = validate.RegisterValidation(usernameTag, usernameValidation)
	RegisterCustomTranslation(validate, translator, usernameTag, usernameText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Validate checks `s` and converts validator failures into a ValidationError.
func Validate(validate *validator.Validate, translator ut.Translator, s interface{}, msg string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, msg)
	}

	fields := make([]FieldError, 0, len(verrs))
	texts := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		text := verr.Translate(translator)
		fields = append(fields, FieldError{Field: verr.Field(), Error: text})
		texts = append(texts, text)
	}
	return NewValidationError(errors.Errorf("%s: %s", msg, strings.Join(texts, "; ")), fields...)
}

// Custom Global Validators

// mdyValidation accepts blank values and month/day/year dates.
func mdyValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if CleanString(s) == "" {
		return true
	}
	_, err := ParseDate(s)
	return err == nil
}

func usernameValidation(fl validator.FieldLevel) bool {
	return ValidUsername(fl.Field().String())
}

// Required is a vala checker failing when `obtained` is nil, or a nil pointer, map, slice,
// chan or func. Other values, such as structs passed by value, always pass.
func Required(obtained interface{}, paramName string) vala.Checker {
	return func() (bool, string) {
		ok := obtained != nil
		if ok {
			switch v := reflect.ValueOf(obtained); v.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
				ok = !v.IsNil()
			}
		}
		return ok, "Parameter was nil: " + paramName
	}
}
