package extract

import (
	"errors"
	"testing"
	"unicode/utf8"
)

func TestValidateURL(t *testing.T) {
	cases := []struct {
		raw  string
		code string
	}{
		{"", CodeMissingURL},
		{"   ", CodeMissingURL},
		{"not a url", CodeInvalidURL},
		{"ftp://example.com/file", CodeInvalidURL},
		{"/relative/path", CodeInvalidURL},
	}
	for _, c := range cases {
		_, err := ValidateURL(c.raw)
		var xerr *Error
		if !errors.As(err, &xerr) {
			t.Errorf("ValidateURL(%q): expected a typed error, got %v", c.raw, err)
			continue
		}
		if xerr.Code != c.code {
			t.Errorf("ValidateURL(%q) code = %s, want %s", c.raw, xerr.Code, c.code)
		}
	}

	u, err := ValidateURL("https://example.com/article")
	if err != nil {
		t.Fatalf("valid url rejected: %v", err)
	}
	if u.Host != "example.com" {
		t.Errorf("parsed host = %s", u.Host)
	}
}

func TestNormalizeContent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   \n \n ", ""},
		{"one  paragraph\twith   gaps", "one paragraph with gaps"},
		{"first block\n\nsecond block", "first block\n\nsecond block"},
		{"first block\nsecond block\n\n\nthird", "first block\n\nsecond block\n\nthird"},
	}
	for _, c := range cases {
		if got := NormalizeContent(c.in); got != c.want {
			t.Errorf("NormalizeContent(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExcerptOf(t *testing.T) {
	if got := ExcerptOf("short summary", "content", 100); got != "short summary" {
		t.Errorf("ExcerptOf = %q", got)
	}
	if got := ExcerptOf("", "fallback to content\n\nmore", 100); got != "fallback to content" {
		t.Errorf("fallback excerpt = %q", got)
	}
	// Truncation must not split a multi-byte rune.
	if got := ExcerptOf("héllo wörld", "", 2); got != "h…" {
		t.Errorf("mid-rune truncation = %q", got)
	}
	if got := ExcerptOf("длинный текст без конца", "", 10); !utf8.ValidString(got) {
		t.Errorf("truncated excerpt is not valid utf-8: %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewError(CodeFetchFailed, inner)
	if !errors.Is(err, inner) {
		t.Error("NewError should wrap the inner error")
	}
	if err.Error() != "fetch-failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if NewError(CodeMissingURL, nil).Error() != "missing-url" {
		t.Error("bare code rendering broken")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(""); err != nil || k != KindReadability {
		t.Errorf("ParseKind(\"\") = %v, %v", k, err)
	}
	if k, err := ParseKind("chromedp"); err != nil || k != KindChromedp {
		t.Errorf("ParseKind(chromedp) = %v, %v", k, err)
	}
	if _, err := ParseKind("lynx"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
