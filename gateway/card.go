package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CardBrand is a display-level classification of a card number.
type CardBrand string

const (
	BrandVisa       CardBrand = "visa"
	BrandMastercard CardBrand = "mastercard"
	BrandAmex       CardBrand = "amex"
	BrandDiscover   CardBrand = "discover"
	BrandUnknown    CardBrand = "unknown"
)

var cardValidator = validator.New()

// normalizeCardNumber strips spaces and dashes.
func normalizeCardNumber(number string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(number)
}

// luhnValid implements the Luhn checksum over a digits-only string.
func luhnValid(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// DetectCardBrand classifies a card number by its leading digits. Used for
// lifecycle events and display only, never for routing.
func DetectCardBrand(number string) CardBrand {
	n := normalizeCardNumber(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return BrandMastercard
	case strings.HasPrefix(n, "34") || strings.HasPrefix(n, "37"):
		return BrandAmex
	case strings.HasPrefix(n, "6011") || strings.HasPrefix(n, "65"):
		return BrandDiscover
	default:
		return BrandUnknown
	}
}

// ValidateCard checks a card locally and returns every failure message, not
// just the first one. An empty slice means the card passed.
func ValidateCard(card Card) []string {
	var msgs []string

	if err := cardValidator.Struct(card); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return msgs
	}

	number := normalizeCardNumber(card.Number)
	if len(number) < 12 || len(number) > 19 {
		msgs = append(msgs, "card number length is invalid")
	} else if !luhnValid(number) {
		msgs = append(msgs, "card number failed checksum")
	}

	month, err := strconv.Atoi(card.ExpMonth)
	if err != nil || month < 1 || month > 12 {
		msgs = append(msgs, "expiry month is invalid")
	}

	year, err := strconv.Atoi(card.ExpYear)
	if err != nil {
		msgs = append(msgs, "expiry year is invalid")
	} else {
		if year < 100 {
			year += 2000
		}
		now := time.Now()
		if year < now.Year() || (year == now.Year() && month > 0 && month < int(now.Month())) {
			msgs = append(msgs, "card is expired")
		}
	}

	cvcLen := len(card.CVC)
	if cvcLen < 3 || cvcLen > 4 {
		msgs = append(msgs, "cvc length is invalid")
	} else if _, err := strconv.Atoi(card.CVC); err != nil {
		msgs = append(msgs, "cvc must be numeric")
	}

	return msgs
}
