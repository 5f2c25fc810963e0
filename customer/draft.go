package customer

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"salesdesk/api"
	"salesdesk/pos"
)

// Draft is the client data shown on the sale form. For a found client it is a
// read-only copy of the server record; while registering it is user input.
type Draft struct {
	Name    string `field:"name" validate:"required,max=100"`
	DNI     string `field:"dni" validate:"required,len=8,digits"`
	Email   string `field:"email" validate:"omitempty,max=100,email"`
	Phone   string `field:"phone" validate:"omitempty,len=9,digits"`
	Address string `field:"address" validate:"required,max=150"`
}

// DraftFrom copies a server record into a draft.
func DraftFrom(c api.Customer) Draft {
	return Draft{
		Name:    c.Name,
		DNI:     c.DNI,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
	}
}

// Trimmed returns the draft with surrounding whitespace removed from every field.
func (d Draft) Trimmed() Draft {
	return Draft{
		Name:    strings.TrimSpace(d.Name),
		DNI:     strings.TrimSpace(d.DNI),
		Email:   strings.TrimSpace(d.Email),
		Phone:   strings.TrimSpace(d.Phone),
		Address: strings.TrimSpace(d.Address),
	}
}

// Client converts the draft into a create-client payload.
func (d Draft) Client() api.Customer {
	t := d.Trimmed()
	return api.Customer{
		Name:    t.Name,
		DNI:     t.DNI,
		Email:   t.Email,
		Phone:   t.Phone,
		Address: t.Address,
	}
}

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	if err := v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic("customer: registering digits rule: " + err.Error())
	}
	return v
}

// Validate checks a draft for registration and returns one error per failing
// field, in form order. A nil result means the draft is valid.
func Validate(d Draft) pos.FieldErrors {
	err := validate.Struct(d.Trimmed())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pos.FieldErrors{{Field: "client", Message: err.Error()}}
	}
	out := make(pos.FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, pos.FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " digits"
	case "digits":
		return "must contain only digits"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
