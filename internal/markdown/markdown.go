package markdown

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Link is one [text](url) reference found in a description or reasoning.
type Link struct {
	Text string
	URL  string
}

var (
	ErrEmptyURL  = errors.New("link has an empty URL")
	ErrNotWebURL = errors.New("link URL is not http or https")
	ErrNoHost    = errors.New("link URL has no host")
)

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

const defaultWrapCol = 80

func Links(text string) []Link {
	matches := linkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{
			Text: strings.TrimSpace(m[1]),
			URL:  strings.TrimSpace(m[2]),
		})
	}
	return links
}

// Plain rewrites every link as "text (url)".
func Plain(text string) string {
	return linkPattern.ReplaceAllStringFunc(text, func(s string) string {
		m := linkPattern.FindStringSubmatch(s)
		return strings.TrimSpace(m[1]) + " (" + strings.TrimSpace(m[2]) + ")"
	})
}

// CheckURL reports why a link target is not a usable web URL.
func CheckURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrNotWebURL
	}
	if u.Host == "" {
		return ErrNoHost
	}
	return nil
}

// Renderer renders markdown for a terminal.
type Renderer struct {
	term *glamour.TermRenderer
}

func NewRenderer(width int) (*Renderer, error) {
	if width <= 0 {
		width = defaultWrapCol
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{term: term}, nil
}

// Render falls back to Plain when the terminal renderer fails.
func (r *Renderer) Render(text string) string {
	if r == nil || r.term == nil {
		return Plain(text)
	}
	out, err := r.term.Render(text)
	if err != nil {
		return Plain(text)
	}
	return strings.TrimRight(out, "\n")
}
