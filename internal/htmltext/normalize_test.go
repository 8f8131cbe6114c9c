package htmltext

import (
	"strings"
	"testing"
)

func TestNormalizeStripsNonContentBlocks(t *testing.T) {
	markup := `<html><head><style>.x{color:red}</style></head><body>
		<script>var secret = "token";</script>
		<noscript>enable javascript</noscript>
		<p>Visible text.</p>
	</body></html>`

	got := Normalize(markup)

	for _, leaked := range []string{"secret", "color:red", "enable javascript"} {
		if strings.Contains(got, leaked) {
			t.Fatalf("normalized output leaked %q: %q", leaked, got)
		}
	}
	if got != "Visible text." {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestNormalizeJoinsBlockElementsWithSpaces(t *testing.T) {
	got := Normalize("<p>alpha</p><p>beta</p><div>gamma</div>")
	if got != "alpha beta gamma" {
		t.Fatalf("expected space-joined text, got %q", got)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("<p>  spaced \n\n out\ttext  </p>")
	if got != "spaced out text" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("empty input must yield empty output, got %q", got)
	}
	if got := Normalize("   \n\t "); got != "" {
		t.Fatalf("blank input must yield empty output, got %q", got)
	}
}

func TestNormalizeMalformedMarkup(t *testing.T) {
	// Unclosed tags and stray brackets must not panic or error.
	got := Normalize("<p>unclosed <b>bold <div>nested</p> text")
	if got == "" {
		t.Fatal("expected text from malformed markup")
	}
	if !strings.Contains(got, "unclosed") || !strings.Contains(got, "text") {
		t.Fatalf("lost text from malformed markup: %q", got)
	}
}

func TestNormalizeStorageFormatFragment(t *testing.T) {
	// Confluence storage format arrives without html/body wrappers and with
	// namespaced macro tags.
	markup := `<ac:structured-macro ac:name="info"><ac:rich-text-body>` +
		`<p>Macro body text</p></ac:rich-text-body></ac:structured-macro>` +
		`<h1>Heading</h1><p>Paragraph.</p>`

	got := Normalize(markup)
	for _, want := range []string{"Macro body text", "Heading", "Paragraph."} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestStripTagsFallback(t *testing.T) {
	got := collapseWhitespace(stripTags("<p>alpha</p><p>beta</p>"))
	if got != "alpha beta" {
		t.Fatalf("unexpected fallback output: %q", got)
	}
}
