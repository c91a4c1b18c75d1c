package products

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
)

// Strategy decides whether a product matches a free-text query.
type Strategy interface {
	Matches(query string, fields ...string) bool
}

// NewStrategy returns the matcher selected by configuration.
func NewStrategy(cfg config.SearchConfig) (Strategy, error) {
	switch cfg.Strategy {
	case config.SearchStrategySubstring:
		return substringStrategy{}, nil
	case config.SearchStrategyRegex:
		return regexStrategy{}, nil
	default:
		return nil, fmt.Errorf("unsupported search strategy %q", cfg.Strategy)
	}
}

type substringStrategy struct{}

func (substringStrategy) Matches(query string, fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

type regexStrategy struct{}

// Matches escapes the query before compiling, so regex metacharacters in
// user input are taken literally.
func (regexStrategy) Matches(query string, fields ...string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return true
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(trimmed))
	if err != nil {
		return false
	}
	for _, field := range fields {
		if re.MatchString(field) {
			return true
		}
	}
	return false
}
