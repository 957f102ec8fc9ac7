package forms

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validSignup() Signup {
	return Signup{
		Name:            "jane",
		Email:           "jane@example.com",
		Password:        "secret!pw",
		ConfirmPassword: "secret!pw",
		Address:         "123 main st",
		DetailAddress:   "apt 4",
		Phone:           "0123456789",
	}
}

func TestValidate_LoginOK(t *testing.T) {
	v := NewValidator()

	errs := v.Validate(Login{Email: "jane@example.com", Password: "pw"})

	assert.Empty(t, errs)
}

func TestValidate_LoginErrors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		form  Login
		field string
	}{
		{"missing email", Login{Password: "pw"}, "email"},
		{"malformed email", Login{Email: "not-an-email", Password: "pw"}, "email"},
		{"missing password", Login{Email: "jane@example.com"}, "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := v.Validate(tc.form)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestValidate_SignupOK(t *testing.T) {
	v := NewValidator()

	errs := v.Validate(validSignup())

	assert.Empty(t, errs)
}

func TestValidate_SignupErrors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		mutate func(*Signup)
		field  string
		want   string
	}{
		{"missing name", func(f *Signup) { f.Name = "" }, "name", "please enter a name"},
		{"name too long", func(f *Signup) { f.Name = "abcdefghijk" }, "name", "name must be between 1 and 10 characters"},
		{"short password", func(f *Signup) { f.Password = "a!b"; f.ConfirmPassword = "a!b" }, "password", "password must be at least 8 characters"},
		{"no special char", func(f *Signup) { f.Password = "abcdefgh"; f.ConfirmPassword = "abcdefgh" }, "password", "password must contain a special character"},
		{"confirmation mismatch", func(f *Signup) { f.ConfirmPassword = "different!" }, "confirmPassword", "password and confirmation do not match"},
		{"missing address", func(f *Signup) { f.Address = "" }, "address", "please enter an address"},
		{"missing detail address", func(f *Signup) { f.DetailAddress = "" }, "detailAddress", "please enter a detail address"},
		{"phone with letters", func(f *Signup) { f.Phone = "01234abcde" }, "phone", "phone number must be 10 or 11 digits"},
		{"phone too short", func(f *Signup) { f.Phone = "012345" }, "phone", "phone number must be 10 or 11 digits"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			form := validSignup()
			tc.mutate(&form)

			errs := v.Validate(form)

			assert.Equal(t, tc.want, errs[tc.field])
		})
	}
}

func validNewProduct() NewProduct {
	return NewProduct{
		Name:        "coffee",
		Description: "dark roast",
		Price:       decimal.NewFromInt(4500),
		Amount:      10,
		Status:      true,
	}
}

func TestValidate_NewProductOK(t *testing.T) {
	v := NewValidator()

	errs := v.Validate(validNewProduct())

	assert.Empty(t, errs)
}

func TestValidate_NewProductErrors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		mutate func(*NewProduct)
		field  string
		want   string
	}{
		{"missing name", func(f *NewProduct) { f.Name = "" }, "name", "please enter a name"},
		{"missing description", func(f *NewProduct) { f.Description = "" }, "description", "please enter a product description"},
		{"missing price", func(f *NewProduct) { f.Price = decimal.Decimal{} }, "price", "please enter a price"},
		{"price below floor", func(f *NewProduct) { f.Price = decimal.NewFromInt(50) }, "price", "price must be at least 100"},
		{"negative amount", func(f *NewProduct) { f.Amount = -1 }, "amount", "amount must be 0 or greater"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			form := validNewProduct()
			tc.mutate(&form)

			errs := v.Validate(form)

			assert.Equal(t, tc.want, errs[tc.field])
		})
	}
}

func TestValidate_NewProductZeroAmountIsValid(t *testing.T) {
	v := NewValidator()
	form := validNewProduct()
	form.Amount = 0

	assert.Empty(t, v.Validate(form))
}

func TestValidate_FirstFailingRuleWinsPerField(t *testing.T) {
	v := NewValidator()
	form := validSignup()
	form.Password = "" // fails required, min, and specialchar
	form.ConfirmPassword = ""

	errs := v.Validate(form)

	assert.Equal(t, "please enter a password", errs["password"])
}

func TestError_ListsEveryField(t *testing.T) {
	err := &Error{Fields: map[string]string{
		"email":    "please enter an email address",
		"password": "please enter a password",
	}}

	assert.Equal(t,
		"validation failed: email: please enter an email address; password: please enter a password",
		err.Error())
}
