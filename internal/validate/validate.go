package validate

import (
	"regexp"
	"strings"
)

var (
	reID      = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCarID   = regexp.MustCompile(`^[A-Z0-9]{6}$`)
	reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ID validates a simple resource identifier (product/donor ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// CartID validates the 6-character cart code.
func CartID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCarID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 120 {
		return "", false
	}
	return s, true
}

// Expiration accepts an empty string (unspecified) or a YYYY-MM-DD date.
func Expiration(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reISODate.MatchString(s)
}

// Normalize folds accented characters to ASCII and lowercases, so substring
// search matches regardless of accents ("Feijão" vs "feijao").
func Normalize(s string) string {
	if s == "" {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'á', 'à', 'ã', 'â', 'ä':
			sb.WriteByte('a')
		case 'é', 'è', 'ê', 'ë':
			sb.WriteByte('e')
		case 'í', 'ì', 'î', 'ï':
			sb.WriteByte('i')
		case 'ó', 'ò', 'õ', 'ô', 'ö':
			sb.WriteByte('o')
		case 'ú', 'ù', 'û', 'ü':
			sb.WriteByte('u')
		case 'ç':
			sb.WriteByte('c')
		case 'ñ':
			sb.WriteByte('n')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
