package formflow_test

import (
	"testing"

	"github.com/formflow/go-formflow"
)

func TestResolveQuestionType_SupportedPassThrough(t *testing.T) {
	for _, supported := range formflow.SupportedTypes() {
		supported := supported
		t.Run(string(supported), func(t *testing.T) {
			resolved, converted := formflow.ResolveQuestionType(string(supported))
			if converted {
				t.Fatalf("ResolveQuestionType(%q) converted = true, want false", supported)
			}
			if resolved != supported {
				t.Fatalf("ResolveQuestionType(%q) = %q, want unchanged", supported, resolved)
			}
		})
	}
}

func TestResolveQuestionType_Fallbacks(t *testing.T) {
	cases := []struct {
		in   string
		want formflow.QuestionType
	}{
		{"text", formflow.TypeShortAnswer},
		{"paragraph", formflow.TypeLongAnswer},
		{"essay", formflow.TypeLongAnswer},
		{"radio", formflow.TypeMultipleChoice},
		{"select", formflow.TypeDropdown},
		{"rating", formflow.TypeLinearScale},
		{"scale", formflow.TypeLinearScale},
		{"grid", formflow.TypeMultipleChoiceGrid},
		{"page_break", formflow.TypeSection},
		{"hologram", formflow.TypeShortAnswer},
		{"", formflow.TypeShortAnswer},
	}

	for _, c := range cases {
		c := c
		t.Run(c.in, func(t *testing.T) {
			resolved, converted := formflow.ResolveQuestionType(c.in)
			if !converted {
				t.Fatalf("ResolveQuestionType(%q) converted = false, want true", c.in)
			}
			if resolved != c.want {
				t.Fatalf("ResolveQuestionType(%q) = %q, want %q", c.in, resolved, c.want)
			}
		})
	}
}
