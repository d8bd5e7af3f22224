package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("bare_host", isBareHost); err != nil {
		return nil, nil, fmt.Errorf("failed to register bare_host validation: %w", err)
	}
	if err := validate.RegisterTranslation("bare_host", trans, func(ut ut.Translator) error {
		return ut.Add("bare_host", "{0} must be a hostname without a scheme or path", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("bare_host", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register bare_host translation: %w", err)
	}

	return validate, trans, nil
}

// isBareHost accepts mirror entries like "api.example.org", rejecting values
// that carry a scheme or path since the resolvers compose URLs themselves.
func isBareHost(fl validator.FieldLevel) bool {
	host := fl.Field().String()
	if host == "" {
		return false
	}
	if strings.Contains(host, "://") || strings.Contains(host, "/") {
		return false
	}
	return !strings.ContainsAny(host, " \t")
}
