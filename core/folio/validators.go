package folio

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kampus/backend/core"
)

var (
	payMethodTag  = "paymethod"
	payMethodText = "unknown payment method"
)

// NewValidator returns the app validator with the folio validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)
	return validate, translator
}

func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(payMethodTag, payMethodValidation)
	core.RegisterCustomTranslation(validate, translator, payMethodTag, payMethodText)
}

// payMethodValidation only allows payment methods ParsePaymentMethod knows of.
func payMethodValidation(fl validator.FieldLevel) bool {
	_, ok := ParsePaymentMethod(fl.Field().String())
	return ok
}
