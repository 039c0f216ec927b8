package hostname_test

import (
	"testing"

	"github.com/hearthhq/hearth/pkg/hostname"
)

func TestParse_valid(t *testing.T) {
	cases := []struct {
		input       string
		normalized  string
		isSubdomain bool
		apex        string
		subLabels   string
	}{
		{
			input:       "example.com",
			normalized:  "example.com",
			isSubdomain: false,
			apex:        "example.com",
			subLabels:   "",
		},
		{
			input:       "blog.example.com",
			normalized:  "blog.example.com",
			isSubdomain: true,
			apex:        "example.com",
			subLabels:   "blog",
		},
		{
			input:       "Forum.Acme-Widgets.ORG.",
			normalized:  "forum.acme-widgets.org",
			isSubdomain: true,
			apex:        "acme-widgets.org",
			subLabels:   "forum",
		},
		{
			input:       "a.b.example.com",
			normalized:  "a.b.example.com",
			isSubdomain: true,
			apex:        "example.com",
			subLabels:   "a.b",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			h, err := hostname.Parse(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.String() != tc.normalized {
				t.Errorf("String: got %q, want %q", h.String(), tc.normalized)
			}
			if h.IsSubdomain() != tc.isSubdomain {
				t.Errorf("IsSubdomain: got %v, want %v", h.IsSubdomain(), tc.isSubdomain)
			}
			if h.Apex() != tc.apex {
				t.Errorf("Apex: got %q, want %q", h.Apex(), tc.apex)
			}
			if h.SubdomainLabels() != tc.subLabels {
				t.Errorf("SubdomainLabels: got %q, want %q", h.SubdomainLabels(), tc.subLabels)
			}
		})
	}
}

func TestParse_invalid(t *testing.T) {
	cases := []string{
		"",                     // empty
		"localhost",            // single label
		"*.example.com",        // wildcard
		"-bad.example.com",     // leading hyphen
		"bad-.example.com",     // trailing hyphen
		"ex ample.com",         // space
		"under_score.com",      // underscore in claimable name
		"a..example.com",       // empty label
		"toolong." + repeat64 + ".com", // 64-char label
	}

	for _, input := range cases {
		if _, err := hostname.Parse(input); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", input)
		}
	}
}

const repeat64 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestMustParse_panicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid hostname")
		}
	}()
	hostname.MustParse("not a hostname")
}
