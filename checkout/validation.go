package checkout

import (
	"regexp"
	"strings"

	"storefront-order-engine/models"
)

// Field names reported in ValidationError, matching the checkout form.
const (
	FieldItems         = "items"
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldEmail         = "email"
	FieldMobile        = "mobile"
	FieldPaymentMethod = "payment_method"
	FieldUpiID         = "upi_id"
	FieldLine1         = "address_line1"
	FieldCity          = "city"
	FieldCountry       = "country"
	FieldZip           = "zip"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validate(snap models.CartSnapshot, payment models.PaymentSelection, customer models.Customer, addr models.Address) error {
	verr := &ValidationError{}

	if snap.IsEmpty() {
		verr.add(FieldItems, ErrEmptyCart)
	}

	required(verr, FieldFirstName, customer.FirstName)
	required(verr, FieldLastName, customer.LastName)
	required(verr, FieldMobile, customer.Mobile)
	if blank(customer.Email) {
		verr.add(FieldEmail, ErrRequired)
	} else if !emailPattern.MatchString(strings.TrimSpace(customer.Email)) {
		verr.add(FieldEmail, ErrInvalidEmail)
	}

	switch {
	case !payment.Method.Valid():
		verr.add(FieldPaymentMethod, ErrUnknownPay)
	case payment.Method == models.PaymentUPI && blank(payment.Detail):
		verr.add(FieldUpiID, ErrMissingUpiID)
	}

	required(verr, FieldLine1, addr.Line1)
	required(verr, FieldCity, addr.City)
	required(verr, FieldCountry, addr.Country)
	required(verr, FieldZip, addr.Zip)

	return verr.orNil()
}

func required(verr *ValidationError, field, value string) {
	if blank(value) {
		verr.add(field, ErrRequired)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
