package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
	"github.com/shandysiswandi/mailblast/internal/pkg/strcase"
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
type V10ValidationError map[string]string

// Error implements the error interface.
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

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// Option customizes NewV10Validator.
type Option func(*options)

type options struct {
	senderDomains func() []string
}

// WithSenderDomains sets the source of the sender_domain allow-list. The
// function is called on every validation so the list can follow config reloads.
// An empty list allows every domain.
func WithSenderDomains(fn func() []string) Option {
	return func(o *options) { o.senderDomains = fn }
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator(opts ...Option) (*V10Validator, error) {
	o := &options{senderDomains: func() []string { return nil }}
	for _, opt := range opts {
		opt(o)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerCustom(validate, enTrans, o); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	errV10 := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		errV10[strcase.ToLowerSnakePath(fe.Namespace())] = fe.Translate(v.translator)
	}

	return errV10
}

// EmailDomain returns the lower-cased part after the last '@', or "".
func EmailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func registerCustom(validate *validator.Validate, enTrans ut.Translator, o *options) error {
	rules := []struct {
		tag  string
		msg  string
		rule validator.Func
	}{
		{
			tag: "notblank",
			msg: "{0} must not be blank",
			rule: func(fl validator.FieldLevel) bool {
				s, ok := fl.Field().Interface().(string)
				return ok && strings.TrimSpace(s) != ""
			},
		},
		{
			tag: "sender_domain",
			msg: "{0} domain is not allowed to send",
			rule: func(fl validator.FieldLevel) bool {
				s, ok := fl.Field().Interface().(string)
				if !ok {
					return false
				}

				allowed := o.senderDomains()
				if len(allowed) == 0 {
					return true
				}

				domain := EmailDomain(s)
				return lo.ContainsBy(allowed, func(d string) bool {
					return strings.EqualFold(strings.TrimSpace(d), domain)
				})
			},
		},
	}

	for _, r := range rules {
		if err := validate.RegisterValidation(r.tag, r.rule); err != nil {
			return err
		}

		msg := r.msg
		err := validate.RegisterTranslation(r.tag, enTrans,
			func(t ut.Translator) error {
				return t.Add(r.tag, msg, false)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				out, err := t.T(fe.Tag(), fe.Field())
				if err != nil {
					slog.Warn("warning: error translating", "tag", fe.Tag(), "error", err)
					return fe.Error()
				}
				return out
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}
