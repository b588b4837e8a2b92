package probe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmespath/go-jmespath"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// matchBody applies the monitor's content gate to a successful response.
// With JSONPath set the body must be JSON and the path is evaluated with
// JMESPath; the projection (or the raw body) is then compared against
// ExpectedValue using MatchMethod. A JSONPath without an expected value only
// requires the projection to be present and not false.
func matchBody(body []byte, m *domain.Monitor) (bool, string) {
	subject := strings.TrimSpace(string(body))

	if m.JSONPath != "" {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return false, "response is not valid JSON"
		}
		v, err := jmespath.Search(m.JSONPath, doc)
		if err != nil {
			return false, fmt.Sprintf("invalid json path %q: %v", m.JSONPath, err)
		}
		if m.ExpectedValue == "" {
			if v == nil || v == false {
				return false, fmt.Sprintf("json path %q yielded no value", m.JSONPath)
			}
			return true, ""
		}
		subject = stringify(v)
	}

	ok, err := compare(subject, m.ExpectedValue, m.MatchMethod)
	if err != nil {
		return false, err.Error()
	}
	if !ok {
		return false, "expected value did not match"
	}
	return true, ""
}

func compare(subject, expected string, method domain.MatchMethod) (bool, error) {
	switch method {
	case domain.MatchInclude:
		return strings.Contains(subject, expected), nil
	case domain.MatchRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", expected, err)
		}
		return re.MatchString(subject), nil
	case domain.MatchEqual, "":
		return subject == expected, nil
	default:
		return false, fmt.Errorf("unknown match method %q", method)
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
