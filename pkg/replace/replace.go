package replace

import (
	"fmt"
	"regexp"
	"strings"

	"marketplace/pkg/json"
)

const mask = "******"

var secretReplacer = NewManagerReplacer("password", "admin_pass", "secret", "secret_code", "token", "access_key", "ssh_key", "user_data")

// SecretReplaceInterface marshals in and masks the well known secret fields.
func SecretReplaceInterface(in interface{}) string {
	jsonStr, err := json.Marshal(in)
	if err != nil {
		return ""
	}
	return secretReplacer.Replace(string(jsonStr))
}

func SecretReplaceStr(in string) string {
	return secretReplacer.Replace(in)
}

// MaskKeys returns a copy of m whose values under keys are masked.
func MaskKeys(m map[string]interface{}, keys []string) map[string]interface{} {
	if len(m) == 0 || len(keys) == 0 {
		return m
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		if _, ok := out[k]; ok {
			out[k] = mask
		}
	}
	return out
}

type Replacer interface {
	Replace(input string) string
}

type NopReplacer struct{}

func (NopReplacer) Replace(input string) string {
	return input
}

// NewManagerReplacer masks the string values of the given json keys.
func NewManagerReplacer(keys ...string) Replacer {
	if len(keys) == 0 {
		return NopReplacer{}
	}
	quoted := make([]string, 0, len(keys))
	for _, k := range keys {
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	return &messageReplacer{
		match: regexp.MustCompile(
			fmt.Sprintf(`(?U)"(%s)":\s*"(.*)",?`, strings.Join(quoted, "|"))),
	}
}

type messageReplacer struct {
	match *regexp.Regexp
}

func (m *messageReplacer) Replace(input string) string {
	var (
		output   strings.Builder
		oldIndex int
	)
	for _, idx := range m.match.FindAllStringSubmatchIndex(input, -1) {
		if len(idx) != 6 {
			continue
		}
		output.WriteString(input[oldIndex:idx[4]])
		output.WriteString(mask)
		oldIndex = idx[5]
	}
	output.WriteString(input[oldIndex:])
	return output.String()
}
