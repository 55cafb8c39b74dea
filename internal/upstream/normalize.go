package upstream

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/net/html"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

// This file holds the per-shape normalization rules. Every function is
// total: unparseable input yields a typed error, never a panic.

// UnwrapAttributes returns the record inside an {"attributes": {...}} wrapper,
// or the record itself when it is already flat. The wrapped form wins when
// both are present.
func UnwrapAttributes(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, Malformed("record is not a JSON object: %v", err)
	}
	if attrs, ok := obj["attributes"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(attrs, &inner); err != nil {
			return nil, Malformed("attributes wrapper is not an object: %v", err)
		}
		return inner, nil
	}
	return obj, nil
}

// CoerceList coerces a scalar-or-array field to an array. Upstreams that
// translate XML to JSON collapse single-element lists into a bare object;
// callers always want the array form.
func CoerceList(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, Malformed("list field is not valid JSON: %v", err)
		}
		return list, nil
	}
	// Single element, not wrapped in an array.
	var parsed interface{}
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return nil, Malformed("list field is not valid JSON: %v", err)
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

// SplitStatusDomainPairs parses the reseller's flat comma-joined listing,
// which interleaves (status, domain, status, domain, ...). An odd number of
// fields means the upstream contract was broken.
func SplitStatusDomainPairs(s string) ([]models.DomainStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts)%2 != 0 {
		return nil, &Error{
			Kind:    KindInvariantViolation,
			Message: "delimited domain listing has an odd number of fields",
			Body:    s,
		}
	}
	pairs := make([]models.DomainStatus, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		pairs = append(pairs, models.DomainStatus{
			Status: strings.TrimSpace(parts[i]),
			Domain: strings.TrimSpace(parts[i+1]),
		})
	}
	return pairs, nil
}

// ParseHTML parses an HTML document leniently. The legacy panel emits tag
// soup; x/net/html mirrors browser recovery so a broken page still yields a
// tree rather than an error.
func ParseHTML(page string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, Malformed("parse html: %v", err)
	}
	return doc, nil
}

// nodeText collects the concatenated text content of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// eachElement calls fn for every element node with the given tag.
func eachElement(n *html.Node, tag string, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
}

// TableRows returns the text of every cell, row by row, across all tables
// in the document.
func TableRows(doc *html.Node) [][]string {
	var rows [][]string
	eachElement(doc, "tr", func(tr *html.Node) {
		var cells []string
		eachElement(tr, "td", func(td *html.Node) {
			cells = append(cells, nodeText(td))
		})
		rows = append(rows, cells)
	})
	return rows
}

// AnchorTexts returns the trimmed text of every anchor in the document.
func AnchorTexts(doc *html.Node) []string {
	var texts []string
	eachElement(doc, "a", func(a *html.Node) {
		if t := nodeText(a); t != "" {
			texts = append(texts, t)
		}
	})
	return texts
}

// ScanLabelValueTable extracts label/value pairs from table rows. A row
// matches when its first cell contains one of the known labels,
// case-insensitively; unmatched rows are ignored, never errors. The value is
// the second cell. The returned map is keyed by the matched known label.
func ScanLabelValueTable(doc *html.Node, labels []string) map[string]string {
	out := make(map[string]string)
	for _, row := range TableRows(doc) {
		if len(row) < 2 {
			continue
		}
		cell := strings.ToLower(row[0])
		for _, label := range labels {
			if strings.Contains(cell, strings.ToLower(label)) {
				if _, seen := out[label]; !seen {
					out[label] = row[1]
				}
			}
		}
	}
	return out
}
