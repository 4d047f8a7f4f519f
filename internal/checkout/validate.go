package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ariefcatur/go-food-storefront/internal/orders"
)

// FieldErrors maps a JSON field name to a message fit for the form.
type FieldErrors map[string]string

func (f FieldErrors) clone() FieldErrors {
	if len(f) == 0 {
		return nil
	}
	out := make(FieldErrors, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

func validateShipping(a orders.ShippingAddress) FieldErrors {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	return fieldErrors(validate.Struct(a))
}

func validatePayment(p orders.PaymentInfo) FieldErrors {
	return fieldErrors(validate.Struct(p))
}

// normalizeCard drops the spaces and dashes people type between digit groups.
func normalizeCard(n string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(n))
}

// masked keeps the last four card digits and drops the CVC.
func masked(p orders.PaymentInfo) orders.PaymentInfo {
	if n := len(p.CardNumber); n > 4 {
		p.CardNumber = strings.Repeat("*", n-4) + p.CardNumber[n-4:]
	}
	p.CVC = ""
	return p
}

func fieldErrors(err error) FieldErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "this field is required"
	case "credit_card":
		return "card number is not valid"
	case "datetime":
		return "use MM/YY"
	case "numeric", "e164|numeric":
		return "digits only"
	case "oneof":
		return "choose one of: " + fe.Param()
	case "min", "max":
		return "length must be " + fe.Tag() + " " + fe.Param()
	case "alphanum":
		return "letters and digits only"
	default:
		return "invalid value"
	}
}
