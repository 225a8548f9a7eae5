package core

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	maxCharsTag  = "maxchars"
	maxCharsText = "{0} must be less than {1} characters"

	requiredTag        = "required"
	requiredWithTag    = "required_with"
	requiredText       = "this field is required"
	requiredLabeledKey = "required_labeled"
	requiredLabeled    = "{0} is required"

	labelsMu sync.RWMutex
	labels   = map[string]map[string]string{} // {tag: {field: label}}
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

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

	_ = validate.RegisterValidation(maxCharsTag, maxCharsValidation)
	RegisterLabeledTranslation(validate, translator, maxCharsTag, maxCharsText)

	registerRequiredTranslation(validate, translator)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
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

// RegisterLabeledTranslation registers a translation whose {0} is the field label
// (see RegisterFieldLabel) and {1} the tag param.
func RegisterLabeledTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, FieldLabel(tag, fe.Field()), fe.Param())
			return s
		},
	)
}

// RegisterFieldLabel sets the human label used for field in messages of tag.
func RegisterFieldLabel(tag, field, label string) {
	labelsMu.Lock()
	defer labelsMu.Unlock()
	if labels[tag] == nil {
		labels[tag] = make(map[string]string)
	}
	labels[tag][field] = label
}

// FieldLabel returns the registered label for field, or "This field".
func FieldLabel(tag, field string) string {
	labelsMu.RLock()
	defer labelsMu.RUnlock()
	if lbl, ok := labels[tag][field]; ok {
		return lbl
	}
	return "This field"
}

func hasFieldLabel(tag, field string) bool {
	labelsMu.RLock()
	defer labelsMu.RUnlock()
	_, ok := labels[tag][field]
	return ok
}

func registerRequiredTranslation(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterTranslation(
		requiredTag, translator,
		func(t ut.Translator) error {
			if err := t.Add(requiredTag, requiredText, true); err != nil {
				return err
			}
			return t.Add(requiredLabeledKey, requiredLabeled, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			if hasFieldLabel(requiredTag, fe.Field()) {
				s, _ := t.T(requiredLabeledKey, FieldLabel(requiredTag, fe.Field()))
				return s
			}
			s, _ := t.T(requiredTag, fe.Field())
			return s
		},
	)
}

// TranslateErrors flattens validation errors into {field: message}.
// It returns nil if err is not a validation error.
func TranslateErrors(err error, translator ut.Translator) map[string]string {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		flds := make(map[string]string, len(vErr))
		for _, fe := range vErr {
			flds[fe.Field()] = fe.Translate(translator)
		}
		return flds
	case *ValidationError:
		return vErr.FieldMap()
	}
	return nil
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// maxCharsValidation checks the rune count of a string against the tag param.
func maxCharsValidation(fl validator.FieldLevel) bool {
	max, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(fl.Field().String()) <= max
}
