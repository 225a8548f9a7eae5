package profile

import (
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

var (
	phoneTag   = "phone10"
	phoneText  = "Phone number must be 10 digits"
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

	pincodeTag   = "pincode6"
	pincodeText  = "Pincode must be 6 digits"
	pincodeRegex = regexp.MustCompile(`^[0-9]{6}$`)

	dobTag  = "dob"
	dobText = "Date of birth must be a valid date (YYYY-MM-DD)"
)

// InitValidators registers the Personal step validations & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(phoneTag, regexValidation(phoneRegex))
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(pincodeTag, regexValidation(pincodeRegex))
	core.RegisterCustomTranslation(validate, translator, pincodeTag, pincodeText)

	_ = validate.RegisterValidation(dobTag, dobValidation)
	core.RegisterCustomTranslation(validate, translator, dobTag, dobText)

	core.RegisterFieldLabel("required", "full_name", "Full name")
	core.RegisterFieldLabel("maxchars", "full_name", "Name")
	core.RegisterFieldLabel("maxchars", "gender", "Gender")
	core.RegisterFieldLabel("maxchars", "address", "Address")
	core.RegisterFieldLabel("maxchars", "city", "City")
	core.RegisterFieldLabel("maxchars", "state", "State")
}

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// dobValidation accepts past dates formatted as YYYY-MM-DD.
func dobValidation(fl validator.FieldLevel) bool {
	dob, err := time.Parse(dateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	return dob.Before(core.NowFunc())
}
