// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package readme checks the bucket's README: that its scoop commands are well-formed and refer
// to apps that exist, that its links resolve, and that its CI badges point at real workflows.
package readme

import (
	"bytes"
	"strings"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"

	"github.com/Mufi-Lang/mufi-bucket/pkg/htmlutil"
)

type Link struct {
	Href string
	Text string
}

type Badge struct {
	Src string
	Alt string
	// Href is the link that the badge image is wrapped in, if any.
	Href string
}

type Document struct {
	Links    []Link
	Badges   []Badge
	Commands []string
}

// Parse renders the Markdown to HTML and extracts links, images, and the lines of code spans
// and code blocks.  Raw HTML embedded in the Markdown is inspected too.
func Parse(markdown []byte) (*Document, error) {
	rendered := blackfriday.Run(markdown)
	root, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return nil, err
	}

	doc := new(Document)
	seenCommands := make(map[string]struct{})
	err = htmlutil.VisitHTML(root, func(node *html.Node) error {
		switch {
		case htmlutil.IsElement(node, "a"):
			if href, ok := htmlutil.GetAttr(node, "", "href"); ok {
				doc.Links = append(doc.Links, Link{
					Href: href,
					Text: strings.TrimSpace(htmlutil.Text(node)),
				})
			}
		case htmlutil.IsElement(node, "img"):
			src, ok := htmlutil.GetAttr(node, "", "src")
			if !ok {
				return nil
			}
			badge := Badge{Src: src}
			badge.Alt, _ = htmlutil.GetAttr(node, "", "alt")
			badge.Href, _ = htmlutil.GetAttr(htmlutil.Ancestor(node, "a"), "", "href")
			doc.Badges = append(doc.Badges, badge)
		case htmlutil.IsElement(node, "code"):
			for _, line := range strings.Split(htmlutil.Text(node), "\n") {
				line = trimPrompt(strings.TrimSpace(line))
				if line == "" {
					continue
				}
				if _, dup := seenCommands[line]; dup {
					continue
				}
				seenCommands[line] = struct{}{}
				doc.Commands = append(doc.Commands, line)
			}
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func trimPrompt(line string) string {
	for _, prompt := range []string{"PS> ", "PS > ", "$ ", "> "} {
		if strings.HasPrefix(line, prompt) {
			return strings.TrimSpace(strings.TrimPrefix(line, prompt))
		}
	}
	return line
}
