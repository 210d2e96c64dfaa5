package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/krishignan/krishignan/internal/pkg/strcase"
)

var (
	// NIST 800-63B length bounds; 72 is the bcrypt input limit.
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	reOTP      = regexp.MustCompile(`^[0-9]{6}$`)
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to a readable message.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator builds a validator with English messages and the password
// and otp tags registered.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	trans, err := englishTranslator(validate)
	if err != nil {
		return nil, err
	}
	v10CustomValidation(validate, trans)

	return &V10Validator{validate: validate, translator: trans}, nil
}

func englishTranslator(validate *validator.Validate) (ut.Translator, error) {
	lang := en.New()
	trans, ok := ut.New(lang, lang).GetTranslator(lang.Locale())
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	return trans, nil
}

// Validate returns a V10ValidationError keyed by snake_case field name, or the
// raw error when data is not a struct.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}

//nolint:errcheck,gosec // registration only fails on programmer error
func v10CustomValidation(validate *validator.Validate, enTrans ut.Translator) {
	rules := []struct {
		tag     string
		re      *regexp.Regexp
		message string
	}{
		{tag: "password", re: rePassword, message: "{0} must be 8-72 characters"},
		{tag: "otp", re: reOTP, message: "{0} must be exactly 6 digits"},
	}

	for _, rule := range rules {
		re := rule.re
		validate.RegisterValidation(rule.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && re.MatchString(s)
		})

		validate.RegisterTranslation(rule.tag, enTrans,
			func(ut ut.Translator) error {
				return ut.Add(rule.tag, rule.message, false)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, err := ut.T(fe.Tag(), fe.Field())
				if err != nil {
					slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
					return fe.Error()
				}
				return t
			},
		)
	}
}
