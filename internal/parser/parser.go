// Package parser extracts the title and visible text from song pages.
package parser

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Song holds the output of parsing a song page.
type Song struct {
	Title string
	Body  string
}

// ParseSong extracts the page title (<title>, else the first <h1>) and the
// visible body text with whitespace collapsed. Script and style contents
// are skipped.
func ParseSong(data []byte) (*Song, error) {
	z := html.NewTokenizer(bytes.NewReader(data))

	var (
		title, h1 strings.Builder
		body      []string
		inTitle   bool
		inH1      bool
		h1Done    bool
		skipDepth int
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			return &Song{
				Title: firstNonEmpty(collapse(title.String()), collapse(h1.String())),
				Body:  strings.Join(body, " "),
			}, nil

		case html.StartTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style:
				skipDepth++
			case atom.Title:
				inTitle = true
			case atom.H1:
				if !h1Done {
					inH1 = true
				}
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style:
				if skipDepth > 0 {
					skipDepth--
				}
			case atom.Title:
				inTitle = false
			case atom.H1:
				if inH1 {
					inH1 = false
					h1Done = true
				}
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := string(z.Text())
			if inTitle {
				title.WriteString(text)
				continue
			}
			if inH1 {
				h1.WriteString(text)
			}
			if t := collapse(text); t != "" {
				body = append(body, t)
			}
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
