package dnscheck_test

import (
	"testing"

	"github.com/hearthhq/hearth/internal/dnscheck"
	"github.com/hearthhq/hearth/pkg/hostname"
)

func TestTXTRequirement(t *testing.T) {
	h := hostname.MustParse("blog.example.com")
	req := dnscheck.TXTRequirement(h, "aB3xY9zQ7wK2mN4p")

	if req.FQDN != "_hearth-challenge.example.com" {
		t.Errorf("FQDN: got %q", req.FQDN)
	}
	if req.Name != "_hearth-challenge" {
		t.Errorf("Name: got %q", req.Name)
	}
	if req.ExpectedValue != "hearth-domain-verify=aB3xY9zQ7wK2mN4p" {
		t.Errorf("ExpectedValue: got %q", req.ExpectedValue)
	}
}

func TestTXTRequirement_apexClaimUsesSameZone(t *testing.T) {
	h := hostname.MustParse("example.com")
	req := dnscheck.TXTRequirement(h, "tok")
	if req.FQDN != "_hearth-challenge.example.com" {
		t.Errorf("FQDN: got %q", req.FQDN)
	}
}

func TestCNAMERequirement(t *testing.T) {
	h := hostname.MustParse("blog.example.com")
	req := dnscheck.CNAMERequirement(h, "domains.hearth.network.")

	if req.Name != "blog" {
		t.Errorf("Name: got %q", req.Name)
	}
	if req.FQDN != "blog.example.com" {
		t.Errorf("FQDN: got %q", req.FQDN)
	}
	if req.ExpectedValue != "domains.hearth.network" {
		t.Errorf("ExpectedValue should be dot-trimmed: got %q", req.ExpectedValue)
	}
}

func TestARequirement(t *testing.T) {
	h := hostname.MustParse("example.com")
	req := dnscheck.ARequirement(h, "203.0.113.10")

	if req.Name != "@" {
		t.Errorf("Name: got %q", req.Name)
	}
	if req.FQDN != "example.com" {
		t.Errorf("FQDN: got %q", req.FQDN)
	}
	if req.ExpectedValue != "203.0.113.10" {
		t.Errorf("ExpectedValue: got %q", req.ExpectedValue)
	}
}

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := dnscheck.NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if len(tok) != 16 {
			t.Fatalf("token length: got %d", len(tok))
		}
		for _, c := range tok {
			isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
			if !isAlnum {
				t.Fatalf("token %q contains non-alphanumeric %q", tok, string(c))
			}
		}
		if seen[tok] {
			t.Fatalf("token %q generated twice", tok)
		}
		seen[tok] = true
	}
}

func TestNewToken_drawsFromFullAlphabet(t *testing.T) {
	// 500 tokens ≈ 8000 characters; the chance of any of the 62 alphabet
	// characters never appearing is negligible, so a miss means the sampling
	// loop dropped part of the alphabet.
	seen := make(map[rune]bool)
	for i := 0; i < 500; i++ {
		tok, err := dnscheck.NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if len(tok) != 16 {
			t.Fatalf("token length: got %d", len(tok))
		}
		for _, c := range tok {
			seen[c] = true
		}
	}
	if len(seen) != 62 {
		t.Errorf("distinct characters across tokens: got %d, want 62", len(seen))
	}
}

func TestMatchTXT_exactOnly(t *testing.T) {
	records := []string{
		"v=spf1 include:_spf.example.com ~all",
		"hearth-domain-verify=rightTOKEN12345x",
	}
	if !dnscheck.MatchTXT(records, "hearth-domain-verify=rightTOKEN12345x") {
		t.Error("expected exact match to verify")
	}
	// Substrings must not match.
	if dnscheck.MatchTXT(records, "rightTOKEN12345x") {
		t.Error("bare token must not match a full record value")
	}
	if dnscheck.MatchTXT([]string{"prefix hearth-domain-verify=rightTOKEN12345x"}, "hearth-domain-verify=rightTOKEN12345x") {
		t.Error("embedded token must not match")
	}
	if dnscheck.MatchTXT(nil, "anything") {
		t.Error("empty record set must not match")
	}
}

func TestMatchCNAME_caseAndDotInsensitive(t *testing.T) {
	if !dnscheck.MatchCNAME([]string{"Domains.Hearth.Network."}, "domains.hearth.network") {
		t.Error("expected case/dot-insensitive match")
	}
	if dnscheck.MatchCNAME([]string{"other.hearth.network."}, "domains.hearth.network") {
		t.Error("wrong target must not match")
	}
}

func TestMatchA(t *testing.T) {
	if !dnscheck.MatchA([]string{"198.51.100.7", "203.0.113.10"}, "203.0.113.10") {
		t.Error("expected address match")
	}
	if dnscheck.MatchA([]string{"198.51.100.7"}, "203.0.113.10") {
		t.Error("wrong address must not match")
	}
}
