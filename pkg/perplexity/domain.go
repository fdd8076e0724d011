package perplexity

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const domainPrompt = `What is the primary email domain used by employees of %q? ` +
	`Reply with only the bare domain (for example "example.com"), or "unknown" if you are not sure.`

var domainRe = regexp.MustCompile(`(?i)\b((?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,24})\b`)

// DomainFor asks the model for an employer's email domain. Returns "" when
// the answer does not contain one.
func DomainFor(ctx context.Context, c Client, employer string) (string, error) {
	answer, err := c.Ask(ctx, Question{
		System:    "You answer with a single internet domain name and nothing else.",
		Prompt:    fmt.Sprintf(domainPrompt, employer),
		MaxTokens: 30,
	})
	if err != nil {
		return "", eris.Wrapf(err, "perplexity: domain for %q", employer)
	}
	return ParseDomain(answer), nil
}

// ParseDomain extracts the first domain-looking token from a model answer.
func ParseDomain(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(strings.Trim(answer, ". "), "unknown") {
		return ""
	}
	answer = strings.ToLower(answer)
	for _, prefix := range []string{"https://", "http://"} {
		answer = strings.ReplaceAll(answer, prefix, "")
	}
	m := domainRe.FindString(answer)
	return strings.TrimPrefix(m, "www.")
}
