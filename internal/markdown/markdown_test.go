package markdown

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestLinks(t *testing.T) {
	t.Run("extracts every link in order", func(t *testing.T) {
		text := "Born in [Italy](https://en.wikipedia.org/wiki/Italy), popularised by [ Gaggia ]( https://example.com/gaggia )."
		got := Links(text)
		want := []Link{
			{Text: "Italy", URL: "https://en.wikipedia.org/wiki/Italy"},
			{Text: "Gaggia", URL: "https://example.com/gaggia"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("unexpected links: %#v", got)
		}
	})

	t.Run("no links", func(t *testing.T) {
		if got := Links("plain text with [brackets] only"); got != nil {
			t.Fatalf("expected nil, got %#v", got)
		}
	})
}

func TestPlain(t *testing.T) {
	got := Plain("See [Espresso](https://en.wikipedia.org/wiki/Espresso) and [Moka pot](https://en.wikipedia.org/wiki/Moka_pot).")
	want := "See Espresso (https://en.wikipedia.org/wiki/Espresso) and Moka pot (https://en.wikipedia.org/wiki/Moka_pot)."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if Plain("no links") != "no links" {
		t.Fatalf("expected text without links to pass through")
	}
}

func TestCheckURL(t *testing.T) {
	cases := []struct {
		url  string
		want error
	}{
		{"https://en.wikipedia.org/wiki/Coffee", nil},
		{"http://example.com", nil},
		{"", ErrEmptyURL},
		{"javascript:alert(1)", ErrNotWebURL},
		{"/wiki/Coffee", ErrNotWebURL},
		{"https://", ErrNoHost},
	}
	for _, tc := range cases {
		err := CheckURL(tc.url)
		if !errors.Is(err, tc.want) {
			t.Fatalf("CheckURL(%q): expected %v, got %v", tc.url, tc.want, err)
		}
	}
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer(60)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	out := r.Render("A **bold** brew.")
	if !strings.Contains(out, "bold") {
		t.Fatalf("expected rendered text to keep content, got %q", out)
	}

	var nilRenderer *Renderer
	if got := nilRenderer.Render("[a](http://b)"); got != "a (http://b)" {
		t.Fatalf("expected plain fallback, got %q", got)
	}
}
