// Package forms validates user input before it reaches the network layer.
// Each form runs a per-field rule pipeline; the result is a field->message
// map where the first failing rule per field wins. An empty map means the
// form may be submitted.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Login is the login form.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup is the signup form. ConfirmPassword never leaves the client.
type Signup struct {
	Name            string `json:"name" validate:"required,max=10"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,specialchar"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Address         string `json:"address" validate:"required"`
	DetailAddress   string `json:"detailAddress" validate:"required"`
	Phone           string `json:"phone" validate:"required,phone"`
}

// NewProduct is the product-registration form. Sellers only; the server
// rejects the call for non-admin credentials.
type NewProduct struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required,gte=100"`
	Amount      int             `json:"amount" validate:"gte=0"`
	Status      bool            `json:"status"`
}

var (
	specialCharPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	phonePattern       = regexp.MustCompile(`^\d{10,11}$`)
)

// messages maps "field.tag" to the message shown next to the field.
var messages = map[string]string{
	"email.required":          "please enter an email address",
	"email.email":             "please enter a valid email address",
	"password.required":       "please enter a password",
	"password.min":            "password must be at least 8 characters",
	"password.specialchar":    "password must contain a special character",
	"confirmPassword.eqfield": "password and confirmation do not match",
	"name.required":           "please enter a name",
	"name.max":                "name must be between 1 and 10 characters",
	"address.required":        "please enter an address",
	"detailAddress.required":  "please enter a detail address",
	"phone.required":          "please enter a phone number",
	"phone.phone":             "phone number must be 10 or 11 digits",
	"description.required":    "please enter a product description",
	"price.required":          "please enter a price",
	"price.gte":               "price must be at least 100",
	"amount.gte":              "amount must be 0 or greater",
}

// Validator runs the form rules.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Report fields by their json names so error maps line up with what
	// the caller rendered.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Validate decimal money fields by their numeric value so required
	// and gte work on them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// The two rules validator has no tag for.
	_ = v.RegisterValidation("specialchar", func(fl validator.FieldLevel) bool {
		return specialCharPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate checks any form struct and returns the error map.
func (va *Validator) Validate(form any) map[string]string {
	err := va.v.Struct(form)
	if err == nil {
		return map[string]string{}
	}

	errs := map[string]string{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["form"] = err.Error()
		return errs
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			errs[field] = msg
			continue
		}
		errs[field] = fmt.Sprintf("invalid value for %s", field)
	}
	return errs
}

// Error carries a failed validation as a single error value. It never
// reaches the gateway; callers render Fields next to the inputs.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}
