package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/tr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	trtranslations "github.com/go-playground/validator/v10/translations/tr"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

// messages overrides the stock translations for specific field/rule pairs.
var messages = map[string]string{
	"title.required":    "Başlık zorunludur",
	"title.max":         "Başlık en fazla 255 karakter olabilir",
	"content.required":  "İçerik zorunludur",
	"content.min":       "İçerik en az 10 karakter olmalıdır",
	"content.max":       "İçerik çok uzun",
	"status.oneof":      "Geçersiz durum değeri",
	"name.required":     "İsim zorunludur",
	"email.required":    "E-posta adresi zorunludur",
	"email.email":       "Geçerli bir e-posta adresi giriniz",
	"password.required": "Şifre zorunludur",
	"password.min":      "Şifre en az 8 karakter olmalıdır",
	"slug.unique":       "Bu slug zaten kullanılıyor",
	"email.unique":      "Bu e-posta adresi zaten kayıtlı",
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := tr.New()
	trans, _ = ut.New(locale, locale).GetTranslator("tr")
	if err := trtranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("registering validation translations: %v", err))
	}
}

// Message returns the user facing message for a field/rule pair, or an empty
// string when none is registered.
func Message(field, rule string) string {
	return messages[field+"."+rule]
}

// ValidationError collects per-field messages. Field order is preserved so
// the summary message is stable.
type ValidationError struct {
	Fields map[string][]string
	order  []string
}

// NewValidationError returns a ValidationError with a single message.
func NewValidationError(field, message string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Error returns the first message, followed by a count of the rest.
func (e *ValidationError) Error() string {
	if len(e.order) == 0 {
		return "validation failed"
	}

	total := 0
	for _, msgs := range e.Fields {
		total += len(msgs)
	}

	first := e.Fields[e.order[0]][0]
	if total > 1 {
		return fmt.Sprintf("%s (ve %d hata daha)", first, total-1)
	}
	return first
}

// Validate checks v against its validate tags. Rule failures come back as a
// *ValidationError keyed by JSON field name.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		msg := Message(fe.Field(), fe.Tag())
		if msg == "" {
			msg = fe.Translate(trans)
		}
		ve.Add(fe.Field(), msg)
	}
	return ve
}
