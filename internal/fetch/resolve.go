// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// fallbackName replaces an empty link basename so every file still ends
// in a usable name.
const fallbackName = "paper.pdf"

// ResolveURL resolves link against base the way a browser resolves an
// href: relative paths join the base host, absolute URLs pass through.
func ResolveURL(base, link string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", link, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// Basename returns the last "/"-separated segment of link with any query
// or fragment removed.
func Basename(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	if link == "" {
		return fallbackName
	}
	return link
}

// FileName returns the output filename {year}_{id}_{basename(link)}.
// Other tooling parses identifiers out of this layout, so it must not change.
// An identifier or basename that would name a path outside the output
// directory is an error.
func FileName(year int, id, link string) (string, error) {
	if err := checkComponent("identifier", id); err != nil {
		return "", err
	}
	base := Basename(link)
	if err := checkComponent("link basename", base); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d_%s_%s", year, id, base), nil
}

func checkComponent(what, s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty %s", what)
	case s == "." || s == "..":
		return fmt.Errorf("invalid %s %q", what, s)
	case strings.ContainsAny(s, "/\\\x00"):
		return fmt.Errorf("%s %q contains a path separator", what, s)
	}
	return nil
}
