package validator

import (
	"github.com/go-playground/validator/v10"
)

// ValidationRule registers one custom tag on the underlying validator.
type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator wraps go-playground/validator so handlers register only the
// rule sets they need.
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

func (v *Validator) Register(rules ...ValidationRule) {
	for _, r := range rules {
		r.Rule(v.validator)
	}
}

func (v *Validator) Struct(s any) error {
	return v.validator.Struct(s)
}

func registerFn(tag string, fn validator.Func) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}
