package notify

import (
	"net/url"
	"strings"
	"unicode"
)

const waBase = "https://wa.me/"

// WhatsAppLink builds a click-to-chat link for phone with a prefilled text.
// Everything but digits is stripped from phone; ok is false when no digits
// remain.
func WhatsAppLink(phone, text string) (link string, ok bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", false
	}

	link = waBase + digits
	if text != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	}
	return link, true
}
