package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	domain "github.com/matjar-app/api/internal/domain"
)

const waBaseURL = "https://wa.me/"

// ErrMissingMerchantPhone indicates the store has no WhatsApp number to
// address the confirmation message to.
var ErrMissingMerchantPhone = errors.New("whatsapp: merchant phone is required")

// WhatsAppOrderLink builds the wa.me deep link shown on the success screen:
// the merchant's number plus a URL-encoded order summary the shopper sends
// with one tap. Pure string construction, nothing is dispatched here.
func WhatsAppOrderLink(merchantPhone string, order domain.Order) (string, error) {
	digits := phoneDigits(merchantPhone)
	if digits == "" {
		return "", ErrMissingMerchantPhone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New order from %s\n", order.Customer.Name)
	fmt.Fprintf(&b, "Phone: %s\n", order.Customer.Phone)
	fmt.Fprintf(&b, "Address: %s, %s\n", order.Customer.Address, order.Customer.Governorate)
	if order.Customer.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", order.Customer.Notes)
	}
	b.WriteString("\nItems:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %dx %s (%s)\n", item.Quantity, item.Name, domain.FormatMinor(item.Price*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", domain.FormatMinor(order.Total))
	b.WriteString("Payment: cash on delivery")

	return waBaseURL + digits + "?text=" + url.QueryEscape(b.String()), nil
}

func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
