package businessflow

import (
	"strings"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/utils"
)

// NormalizePhone strips every non-digit character. A number that does not already
// start with prefix keeps its last LocalPhoneDigits digits behind the prefix.
// Applying it to its own output returns the same number.
func NormalizePhone(raw, prefix string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if digits == "" || prefix == "" || strings.HasPrefix(digits, prefix) {
		return digits
	}
	if len(digits) > utils.LocalPhoneDigits {
		digits = digits[len(digits)-utils.LocalPhoneDigits:]
	}
	return prefix + digits
}

// orderPhone picks the destination number: shipping, then customer, then billing
func orderPhone(event *dto.OrderEvent) string {
	candidates := make([]string, 0, 3)
	if event.ShippingAddress != nil {
		candidates = append(candidates, event.ShippingAddress.Phone)
	}
	if event.Customer != nil {
		candidates = append(candidates, event.Customer.Phone)
	}
	if event.BillingAddress != nil {
		candidates = append(candidates, event.BillingAddress.Phone)
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}
