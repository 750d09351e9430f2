package core

import "testing"

func TestFormatter(t *testing.T) {
	f, err := NewFormatter("USD", "en-US")
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	if f.Currency() != "USD" {
		t.Fatalf("currency = %q", f.Currency())
	}
	cases := map[string]string{
		"12.50":   "$12.50",
		"0":       "$0.00",
		"1234.5":  "$1,234.50",
		"-7.05":   "-$7.05",
	}
	for in, want := range cases {
		if got := f.Format(MustParseMoney(in)); got != want {
			t.Errorf("Format(%s) = %q, want %q", in, got, want)
		}
	}
	if got := f.FormatPercent(62.5); got != "62.5%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestFormatterRejectsBadConfig(t *testing.T) {
	if _, err := NewFormatter("XXZ", "en-US"); err == nil {
		t.Error("expected error for unknown currency")
	}
	if _, err := NewFormatter("EUR", "not a locale!"); err == nil {
		t.Error("expected error for malformed locale")
	}
}
