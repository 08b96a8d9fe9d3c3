package watermark

import (
	"fmt"
	"regexp"
	"time"
)

// Marker names, as reported in Change.
const (
	MarkerMeta          = "meta-fingerprint"
	MarkerInvisibleID   = "invisible-id"
	MarkerLayerRef      = "layer-ref"
	MarkerTime          = "time"
	MarkerDatePublished = "date-published"
	MarkerDateModified  = "date-modified"
	MarkerLastmod       = "lastmod"
	MarkerFeedModified  = "feed-date-modified"
)

// Change records how many times a marker pattern matched during a patch.
// A zero Count means the marker was absent and the document was left
// untouched at that location.
type Change struct {
	Marker string
	Count  int
}

// stamp carries the values substituted into a document.
type stamp struct {
	iso         string
	display     string
	fingerprint string
}

func newStamp(date time.Time, fp string) stamp {
	return stamp{
		iso:         date.Format(ISODate),
		display:     DisplayDate(date),
		fingerprint: fp,
	}
}

type rule struct {
	marker  string
	re      *regexp.Regexp
	replace func(s stamp) string
}

// apply runs each rule against text in order and reports the match counts.
// Replacements are literal, so '$' in the replacement is never expanded.
func apply(text string, rules []rule, s stamp) (string, []Change) {
	changes := make([]Change, 0, len(rules))
	for _, r := range rules {
		n := len(r.re.FindAllStringIndex(text, -1))
		if n > 0 {
			text = r.re.ReplaceAllLiteralString(text, r.replace(s))
		}
		changes = append(changes, Change{Marker: r.marker, Count: n})
	}
	return text, changes
}

// Patcher rewrites the six watermark markers of the site's HTML page.
// The invisible-id marker embeds the site domain, so a Patcher is bound to
// one domain.
type Patcher struct {
	domain string
	html   []rule
}

// NewPatcher compiles the HTML marker patterns for domain.
func NewPatcher(domain string) *Patcher {
	invisible := fmt.Sprintf("answerlayer:%s:invisible-id:", domain)
	return &Patcher{
		domain: domain,
		html: []rule{
			{
				marker: MarkerMeta,
				re:     regexp.MustCompile(`answerlayer-fingerprint" content="hash:[0-9a-f]{10};date:\d{4}-\d{2}-\d{2}"`),
				replace: func(s stamp) string {
					return fmt.Sprintf(`answerlayer-fingerprint" content="hash:%s;date:%s"`, s.fingerprint, s.iso)
				},
			},
			{
				marker: MarkerInvisibleID,
				re:     regexp.MustCompile(regexp.QuoteMeta(invisible) + `[A-Za-z0-9]+`),
				replace: func(s stamp) string {
					return invisible + s.fingerprint
				},
			},
			{
				marker: MarkerLayerRef,
				re:     regexp.MustCompile(`Verified layer ref: <code>[0-9a-f]{10}</code>`),
				replace: func(s stamp) string {
					return fmt.Sprintf("Verified layer ref: <code>%s</code>", s.fingerprint)
				},
			},
			{
				marker: MarkerTime,
				re:     regexp.MustCompile(`<time datetime="\d{4}-\d{2}-\d{2}">[^<]+</time>`),
				replace: func(s stamp) string {
					return fmt.Sprintf(`<time datetime="%s">%s</time>`, s.iso, s.display)
				},
			},
			{
				marker: MarkerDatePublished,
				re:     regexp.MustCompile(`"datePublished": "\d{4}-\d{2}-\d{2}",`),
				replace: func(s stamp) string {
					return fmt.Sprintf(`"datePublished": "%s",`, s.iso)
				},
			},
			{
				marker: MarkerDateModified,
				re:     regexp.MustCompile(`"dateModified": "\d{4}-\d{2}-\d{2}",`),
				replace: func(s stamp) string {
					return fmt.Sprintf(`"dateModified": "%s",`, s.iso)
				},
			},
		},
	}
}

// Domain returns the domain the patcher was built for.
func (p *Patcher) Domain() string { return p.domain }

// PatchHTML rewrites every watermark marker in text with date and fp.
// Missing markers are skipped.
func (p *Patcher) PatchHTML(text string, date time.Time, fp string) string {
	out, _ := p.ApplyHTML(text, date, fp)
	return out
}

// ApplyHTML is PatchHTML that also reports per-marker match counts.
func (p *Patcher) ApplyHTML(text string, date time.Time, fp string) (string, []Change) {
	return apply(text, p.html, newStamp(date, fp))
}

var sitemapRules = []rule{
	{
		marker: MarkerLastmod,
		re:     regexp.MustCompile(`<lastmod>\d{4}-\d{2}-\d{2}</lastmod>`),
		replace: func(s stamp) string {
			return "<lastmod>" + s.iso + "</lastmod>"
		},
	},
}

// PatchSitemap sets every <lastmod> element in text to date.
func PatchSitemap(text string, date time.Time) string {
	out, _ := ApplySitemap(text, date)
	return out
}

// ApplySitemap is PatchSitemap that also reports the match count.
func ApplySitemap(text string, date time.Time) (string, []Change) {
	return apply(text, sitemapRules, newStamp(date, ""))
}

var feedRules = []rule{
	{
		marker: MarkerFeedModified,
		re:     regexp.MustCompile(`"date_modified": "\d{4}-\d{2}-\d{2}T[0-9:]+Z"`),
		replace: func(s stamp) string {
			return fmt.Sprintf(`"date_modified": "%sT00:00:00Z"`, s.iso)
		},
	},
}

// PatchFeed sets every UTC date_modified timestamp in text to midnight of
// date.
func PatchFeed(text string, date time.Time) string {
	out, _ := ApplyFeed(text, date)
	return out
}

// ApplyFeed is PatchFeed that also reports the match count.
func ApplyFeed(text string, date time.Time) (string, []Change) {
	return apply(text, feedRules, newStamp(date, ""))
}

// Missing returns the markers in changes that matched nothing.
func Missing(changes []Change) []string {
	var out []string
	for _, c := range changes {
		if c.Count == 0 {
			out = append(out, c.Marker)
		}
	}
	return out
}
