// Package audit inspects a patched page and reports which watermark fields
// carry the expected date and fingerprint.
//
// Patching is pattern based and silently skips markers it cannot find, so a
// rewritten page can lose a watermark without the update run noticing. The
// audit parses the page as HTML and looks for each field structurally.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kalambet/answerlayer/internal/watermark"
)

// Status of a single watermark field.
type Status string

const (
	StatusOK      Status = "ok"
	StatusStale   Status = "stale"
	StatusMissing Status = "missing"
)

// Field names reported in findings.
const (
	FieldMeta          = "meta answerlayer-fingerprint"
	FieldInvisibleID   = "invisible-id comment"
	FieldLayerRef      = "verified layer ref"
	FieldTime          = "time element"
	FieldDatePublished = "json-ld datePublished"
	FieldDateModified  = "json-ld dateModified"
)

// Finding describes one watermark field.
type Finding struct {
	Field  string
	Status Status
	Got    string
	Want   string
}

// Report is the result of auditing one page.
type Report struct {
	Date        string
	Fingerprint string
	Findings    []Finding
}

// OK reports whether every field was found with the expected value.
func (r Report) OK() bool {
	for _, f := range r.Findings {
		if f.Status != StatusOK {
			return false
		}
	}
	return true
}

// Filter returns the findings with status s.
func (r Report) Filter(s Status) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Status == s {
			out = append(out, f)
		}
	}
	return out
}

// Expect holds the values a freshly patched page should carry.
// An empty Fingerprint means "whatever the meta tag says", so the audit
// only checks that the fields agree with each other.
type Expect struct {
	Date        time.Time
	Fingerprint string
	Domain      string
}

type scan struct {
	meta          *string
	invisibleID   *string
	layerRef      *string
	timeAttr      *string
	timeText      *string
	datePublished *string
	dateModified  *string
}

// CheckHTML parses the page from r and audits it against exp.
func CheckHTML(r io.Reader, exp Expect) (Report, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Report{}, fmt.Errorf("parsing html: %w", err)
	}

	var sc scan
	sc.walk(doc, exp.Domain)

	iso := exp.Date.Format(watermark.ISODate)
	fp := exp.Fingerprint
	if fp == "" && sc.meta != nil {
		fp, _ = parseMeta(*sc.meta)
	}

	rep := Report{Date: iso, Fingerprint: fp}
	add := func(field string, got *string, want string) {
		f := Finding{Field: field, Want: want}
		switch {
		case got == nil:
			f.Status = StatusMissing
		case *got != want:
			f.Status = StatusStale
			f.Got = *got
		default:
			f.Status = StatusOK
			f.Got = *got
		}
		rep.Findings = append(rep.Findings, f)
	}

	add(FieldMeta, sc.meta, fmt.Sprintf("hash:%s;date:%s", fp, iso))
	add(FieldInvisibleID, sc.invisibleID, fp)
	add(FieldLayerRef, sc.layerRef, fp)

	var timeGot *string
	if sc.timeAttr != nil {
		s := *sc.timeAttr + " " + strings.TrimSpace(deref(sc.timeText))
		timeGot = &s
	}
	add(FieldTime, timeGot, iso+" "+watermark.DisplayDate(exp.Date))

	add(FieldDatePublished, sc.datePublished, iso)
	add(FieldDateModified, sc.dateModified, iso)
	return rep, nil
}

func (sc *scan) walk(n *html.Node, domain string) {
	switch n.Type {
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Meta:
			if attr(n, "name") == "answerlayer-fingerprint" && sc.meta == nil {
				v := attr(n, "content")
				sc.meta = &v
			}
		case atom.Time:
			if v, ok := attrOK(n, "datetime"); ok && sc.timeAttr == nil {
				text := textOf(n)
				sc.timeAttr, sc.timeText = &v, &text
			}
		case atom.Code:
			if sc.layerRef == nil && precededByLayerRef(n) {
				v := strings.TrimSpace(textOf(n))
				sc.layerRef = &v
			}
		case atom.Script:
			if attr(n, "type") == "application/ld+json" {
				sc.readJSONLD(textOf(n))
			}
		}
	case html.CommentNode:
		prefix := "answerlayer:" + domain + ":invisible-id:"
		if i := strings.Index(n.Data, prefix); i >= 0 && sc.invisibleID == nil {
			v := strings.Fields(n.Data[i+len(prefix):])
			if len(v) > 0 {
				sc.invisibleID = &v[0]
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sc.walk(c, domain)
	}
}

// readJSONLD picks datePublished/dateModified from a JSON-LD block, which may
// hold a single object, an array, or an object with an @graph array.
func (sc *scan) readJSONLD(text string) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return
	}
	var visit func(v any)
	visit = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, e := range t {
				visit(e)
			}
		case map[string]any:
			if s, ok := t["datePublished"].(string); ok && sc.datePublished == nil {
				sc.datePublished = &s
			}
			if s, ok := t["dateModified"].(string); ok && sc.dateModified == nil {
				sc.dateModified = &s
			}
			if g, ok := t["@graph"]; ok {
				visit(g)
			}
		}
	}
	visit(raw)
}

func precededByLayerRef(n *html.Node) bool {
	prev := n.PrevSibling
	return prev != nil && prev.Type == html.TextNode &&
		strings.HasSuffix(strings.TrimRight(prev.Data, " "), "Verified layer ref:")
}

func parseMeta(content string) (fp, date string) {
	for _, part := range strings.Split(content, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch k {
		case "hash":
			fp = v
		case "date":
			date = v
		}
	}
	return fp, date
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
