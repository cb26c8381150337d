package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveTitle_PrefersFilename(t *testing.T) {
	got := DeriveTitle("feline_ethology.pdf", "Cats exhibit crepuscular activity", "file-abc")
	if got != "feline_ethology.pdf" {
		t.Errorf("expected filename title, got %q", got)
	}
}

func TestDeriveTitle_FallsBackToExcerpt(t *testing.T) {
	got := DeriveTitle("", "  Cats exhibit crepuscular activity  ", "file-abc")
	if got != "Cats exhibit crepuscular activity" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestDeriveTitle_TruncatesLongExcerpt(t *testing.T) {
	excerpt := strings.Repeat("кот ", 50)
	got := DeriveTitle("", excerpt, "file-abc")
	if utf8.RuneCountInString(got) != titleExcerptLimit {
		t.Errorf("expected %d runes, got %d", titleExcerptLimit, utf8.RuneCountInString(got))
	}
	if !strings.HasPrefix(excerpt, got) {
		t.Error("truncated title must be a prefix of the excerpt")
	}
}

func TestDeriveTitle_FallsBackToID(t *testing.T) {
	if got := DeriveTitle("", "   ", "file-abc"); got != "file-abc" {
		t.Errorf("expected id fallback, got %q", got)
	}
}

func TestSynthesizeURL(t *testing.T) {
	if got := SynthesizeURL("file-abc"); got != "openai://file/file-abc" {
		t.Errorf("unexpected url %q", got)
	}
}
