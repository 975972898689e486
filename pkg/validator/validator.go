package validator

import (
	"errors"
	"reflect"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	translations "github.com/go-playground/validator/v10/translations/en"
	"go.uber.org/multierr"
)

// Validator matches gin's binding.StructValidator.
type Validator interface {
	ValidateStruct(obj interface{}) error
	Engine() interface{}
}

// New returns a validator reading the "binding" tag, with english messages and the custom tags of this package.
func New() (Validator, error) {
	v := &defaultValidator{Validate: validator.New()}
	v.Validate.SetTagName("binding")
	v.translator, _ = ut.New(en.New()).GetTranslator("en")
	if err := translations.RegisterDefaultTranslations(v.Validate, v.translator); err != nil {
		return nil, err
	}
	for tag, fn := range map[string]validator.Func{
		"sort":      OrderWithDBSort,
		"component": ComponentName,
	} {
		if err := v.Validate.RegisterValidation(tag, fn); err != nil {
			return nil, err
		}
	}
	return v, nil
}

type defaultValidator struct {
	Validate   *validator.Validate
	translator ut.Translator
}

func (v *defaultValidator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	switch value.Kind() { // nolint:exhaustive
	case reflect.Ptr:
		if value.IsNil() {
			return nil
		}
		return v.ValidateStruct(value.Elem().Interface())
	case reflect.Struct:
		return v.translate(v.Validate.Struct(obj))
	case reflect.Slice, reflect.Array:
		var errs error
		for i := 0; i < value.Len(); i++ {
			errs = multierr.Append(errs, v.ValidateStruct(value.Index(i).Interface()))
		}
		return errs
	default:
		return nil
	}
}

func (v *defaultValidator) translate(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	var errs error
	for _, s := range vErrs.Translate(v.translator) {
		errs = multierr.Append(errs, errors.New(s))
	}
	return errs
}

func (v *defaultValidator) Engine() interface{} {
	return v.Validate
}

func Var(v Validator, field interface{}, tag string) error {
	validate, ok := v.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return validate.Var(field, tag)
}
