package application

import (
	"fmt"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

const minPassYear = 1950

var (
	percentageTag  = "percentage"
	percentageText = "Percentage must be between 0 and 100"

	passYearTag = "passyear"

	appStatusTag  = "appstatus"
	appStatusText = "invalid application status"
)

// InitValidators registers the Academic & Course step validations & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(percentageTag, percentageValidation)
	core.RegisterCustomTranslation(validate, translator, percentageTag, percentageText)

	// the upper bound moves with the calendar, so the text is built on use
	_ = validate.RegisterValidation(passYearTag, passYearValidation)
	_ = validate.RegisterTranslation(
		passYearTag, translator,
		func(t ut.Translator) error { return nil },
		func(t ut.Translator, fe validator.FieldError) string { return passYearText() },
	)

	_ = validate.RegisterValidation(appStatusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, appStatusTag, appStatusText)

	core.RegisterFieldLabel("required", "course_name", "Course selection")
	core.RegisterFieldLabel("maxchars", "course_name", "Course name")
	core.RegisterFieldLabel("maxchars", "preferred_college", "College name")
	core.RegisterFieldLabel("maxchars", "board_10th", "Board")
	core.RegisterFieldLabel("maxchars", "board_12th", "Board")
	core.RegisterFieldLabel("maxchars", "stream", "Stream")
}

func maxPassYear() int {
	return core.NowFunc().Year() + 1
}

func passYearText() string {
	return fmt.Sprintf("Year must be between %d and %d", minPassYear, maxPassYear())
}

func parsePercentage(s string) (float64, bool) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return p, p >= 0 && p <= 100
}

func parsePassYear(s string) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return y, y >= minPassYear && y <= maxPassYear()
}

// percentageValidation accepts a float in [0, 100].
func percentageValidation(fl validator.FieldLevel) bool {
	_, ok := parsePercentage(fl.Field().String())
	return ok
}

// passYearValidation accepts an integer year in [1950, current year + 1].
func passYearValidation(fl validator.FieldLevel) bool {
	_, ok := parsePassYear(fl.Field().String())
	return ok
}
