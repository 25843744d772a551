// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package htmlutil has small helpers for walking a golang.org/x/net/html tree.
package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
)

// VisitHTML walks the tree rooted at node depth-first, calling before on the way down and after
// on the way up.  Either may be nil.  A non-nil error stops the walk.
func VisitHTML(node *html.Node, before, after func(*html.Node) error) error {
	if before != nil {
		if err := before(node); err != nil {
			return err
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if err := VisitHTML(child, before, after); err != nil {
			return err
		}
	}
	if after != nil {
		if err := after(node); err != nil {
			return err
		}
	}
	return nil
}

func GetAttr(node *html.Node, namespace, name string) (val string, ok bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Namespace == namespace && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// IsElement reports whether node is an element with the given tag name.
func IsElement(node *html.Node, tag string) bool {
	return node != nil && node.Type == html.ElementNode && node.Data == tag
}

// Ancestor returns the nearest enclosing element with the given tag name, or nil.
func Ancestor(node *html.Node, tag string) *html.Node {
	for p := node.Parent; p != nil; p = p.Parent {
		if IsElement(p, tag) {
			return p
		}
	}
	return nil
}

// Text returns the concatenated text content of node.
func Text(node *html.Node) string {
	var text strings.Builder
	_ = VisitHTML(node, func(child *html.Node) error {
		if child.Type == html.TextNode {
			text.WriteString(child.Data)
		}
		return nil
	}, nil)
	return text.String()
}
