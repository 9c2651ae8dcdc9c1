package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/mychessstyle/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if result := htmlsanitize.Sanitize(""); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if result := htmlsanitize.Sanitize(input); result != input {
		t.Errorf("expected safe HTML preserved, got %q", result)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert('xss')</script>"
	if result := htmlsanitize.Sanitize(input); result != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", result)
	}
}

func TestSanitize_RemovesLinksAndImages(t *testing.T) {
	input := `<p>See <a href="https://example.com">this</a><img src="x" onerror="alert(1)"></p>`
	result := htmlsanitize.Sanitize(input)
	if strings.Contains(result, "<a") || strings.Contains(result, "<img") {
		t.Errorf("expected links and images removed, got %q", result)
	}
	if !strings.Contains(result, "this") {
		t.Errorf("expected link text kept, got %q", result)
	}
}

func TestSanitize_AllowsLists(t *testing.T) {
	input := "<ul><li>Play e4</li><li>Castle early</li></ul>"
	if result := htmlsanitize.Sanitize(input); result != input {
		t.Errorf("expected list preserved, got %q", result)
	}
}

func TestText_StripsMarkup(t *testing.T) {
	got := htmlsanitize.Text("  <think>internal</think><b>Your Sicilian</b> is &quot;brave&quot; ")
	if strings.Contains(got, "<") {
		t.Errorf("expected no markup, got %q", got)
	}
	if !strings.Contains(got, `Your Sicilian is "brave"`) {
		t.Errorf("unexpected text %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := map[string]bool{
		"":                true,
		"Hello, World!":   true,
		"5 < 10":          true,
		"5 > 3":           true,
		"<p>Hello</p>":    false,
		"a <b>bold</b> b": false,
	}
	for in, want := range tests {
		if got := htmlsanitize.IsPlainText(in); got != want {
			t.Errorf("IsPlainText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Hello, World!", "<p>Hello, World!</p>"},
		{"Line 1\nLine 2\nLine 3", "<p>Line 1<br>Line 2<br>Line 3</p>"},
		{"Roast\n\nTip", "<p>Roast</p><p>Tip</p>"},
		{"A & B", "<p>A &amp; B</p>"},
		{"windows\r\nline", "<p>windows<br>line</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PlainTextToHTML(tt.in); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainTextToHTML_Escapes(t *testing.T) {
	result := htmlsanitize.PlainTextToHTML("<script>alert('xss')</script>")
	if strings.Contains(result, "<script>") {
		t.Error("expected HTML to be escaped")
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want template.HTML
	}{
		{"", ""},
		{"   ", ""},
		{"Hello, World!", "<p>Hello, World!</p>"},
		{"<p>Hello</p>", "<p>Hello</p>"},
		{"<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"Line 1\nLine 2", "<p>Line 1<br>Line 2</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PrepareForDisplay(tt.in); got != tt.want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
