package sanitize

import (
	"regexp"
	"strings"
)

// İstek gövdelerinden temizlenen kalıplar:
// script tag'leri (içerikleriyle birlikte), javascript: şeması ve
// inline event handler attribute'ları (onclick= gibi).
var (
	scriptPattern   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	jsSchemePattern = regexp.MustCompile(`(?i)javascript\s*:`)
	eventPattern    = regexp.MustCompile(`(?i)\bon\w+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
)

// String tek bir string değerini temizler ve trimler. İdempotenttir.
// Tek geçiş yeterli değil: silinen bir kalıbın etrafındaki parçalar
// birleşip yeni bir kalıp oluşturabilir (ör. "jajavascript:vascript:"),
// bu yüzden üç kalıp birden çıktı değişmeyene kadar tekrar uygulanır.
func String(s string) string {
	for {
		next := scriptPattern.ReplaceAllString(s, "")
		next = jsSchemePattern.ReplaceAllString(next, "")
		next = eventPattern.ReplaceAllString(next, "")
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
}

// Payload decode edilmiş bir JSON gövdesini derinlemesine gezer ve her
// string yaprağı temizler. Map ve slice dışındaki değerler olduğu gibi döner.
// Validation'dan ve persist'ten ÖNCE çağrılır.
func Payload(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		for k, item := range val {
			val[k] = Payload(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = Payload(item)
		}
		return val
	default:
		return v
	}
}
