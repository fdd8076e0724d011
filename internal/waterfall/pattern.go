package waterfall

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/identity"
)

var placeholders = []string{"{first}", "{last}", "{f}", "{l}"}

// checkTemplate rejects templates that would render without a name part.
func checkTemplate(tmpl string) error {
	tmpl = strings.ToLower(tmpl)
	if strings.Contains(tmpl, "@") {
		return eris.Errorf("template %q must not contain a domain", tmpl)
	}
	for _, p := range placeholders {
		if strings.Contains(tmpl, p) {
			return nil
		}
	}
	return eris.Errorf("template %q has no name placeholder", tmpl)
}

// nameSlug folds a name to the characters mailbox conventions use.
func nameSlug(s string) string {
	s = identity.Fold(s)
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Render expands a naming template such as "{first}.{last}" or "{f}{last}"
// into an address at domain.
func Render(tmpl, first, last, domain string) (string, error) {
	tmpl = strings.ToLower(tmpl)
	if err := checkTemplate(tmpl); err != nil {
		return "", err
	}
	f, l := nameSlug(first), nameSlug(last)
	needsFirst := strings.Contains(tmpl, "{first}") || strings.Contains(tmpl, "{f}")
	needsLast := strings.Contains(tmpl, "{last}") || strings.Contains(tmpl, "{l}")
	if (needsFirst && f == "") || (needsLast && l == "") {
		return "", eris.Errorf("waterfall: template %q needs a name that is missing", tmpl)
	}
	if domain == "" {
		return "", eris.New("waterfall: domain is required")
	}

	initial := func(s string) string {
		if s == "" {
			return ""
		}
		return s[:1]
	}
	local := strings.NewReplacer(
		"{first}", f,
		"{last}", l,
		"{f}", initial(f),
		"{l}", initial(l),
	).Replace(tmpl)
	return local + "@" + domain, nil
}
