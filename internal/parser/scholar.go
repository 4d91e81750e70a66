package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/scholartrend/internal/bypass"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/PuerkitoBio/goquery"
)

// Selectors of the Scholar results page.
const (
	SelectorCountHeader = "#gs_ab_md"
	SelectorResultBlock = ".gs_r"
	SelectorCaption     = ".gs_a"
	SelectorTitle       = "h3.gs_rt"
)

var (
	// countPattern is lenient and only applied to the results header.
	countPattern = regexp.MustCompile(`(?:About\s+)?(\d[\d,]*)\s+results?\b`)
	// pageCountPattern needs the "About" prefix so counts quoted in result
	// snippets are not taken for the total.
	pageCountPattern = regexp.MustCompile(`About\s+(\d[\d,]*)\s+results?\b`)

	noMatchPattern = regexp.MustCompile(`did not match any articles`)
)

// Config controls what the parser extracts.
type Config struct {
	// ExtractEntries enables scraping the author/venue/year caption of each result.
	ExtractEntries bool
	// Detectors classify pages without a count. Defaults to bypass.DefaultDetectors.
	Detectors []bypass.Detector
}

// Scholar parses Google Scholar result pages.
type Scholar struct {
	cfg Config
}

var _ trend.ResultParser = (*Scholar)(nil)

func New(cfg Config) *Scholar {
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	return &Scholar{cfg: cfg}
}

// Parse extracts the total result count and, when enabled, the result captions.
func (s *Scholar) Parse(page *trend.Page) (trend.Extraction, error) {
	if page == nil {
		return trend.Extraction{}, fmt.Errorf("%w: empty page", trend.ErrParseFailure)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return trend.Extraction{}, fmt.Errorf("%w: %v", trend.ErrParseFailure, err)
	}

	total, found := extractCount(doc)
	if !found {
		if detected, src := bypass.Analyze(page, s.cfg.Detectors); detected {
			return trend.Extraction{}, fmt.Errorf("%w: %s anti-automation page", trend.ErrRateLimited, src)
		}
		if noMatchPattern.MatchString(doc.Text()) {
			return trend.Extraction{TotalCount: 0, Entries: []string{}}, nil
		}
		return trend.Extraction{}, fmt.Errorf("%w: result count pattern not found", trend.ErrParseFailure)
	}

	entries := []string{}
	if s.cfg.ExtractEntries {
		entries = Captions(doc)
	}
	return trend.Extraction{TotalCount: total, Entries: entries}, nil
}

// ParseCount reads a count such as "About 1,234 results" from free text.
func ParseCount(text string) (int, bool) {
	return matchCount(countPattern, text)
}

func matchCount(pattern *regexp.Regexp, text string) (int, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractCount prefers the results header and falls back to an
// "About N results" phrase anywhere in the document.
func extractCount(doc *goquery.Document) (int, bool) {
	if header := doc.Find(SelectorCountHeader).First(); header.Length() > 0 {
		if n, ok := ParseCount(normalize(header.Text())); ok {
			return n, true
		}
	}
	return matchCount(pageCountPattern, normalize(doc.Text()))
}

// Captions returns the caption of every result block in document order.
// Blocks without a caption are skipped.
func Captions(doc *goquery.Document) []string {
	captions := []string{}
	doc.Find(SelectorResultBlock).Each(func(_ int, block *goquery.Selection) {
		if c := normalize(block.Find(SelectorCaption).First().Text()); c != "" {
			captions = append(captions, c)
		}
	})
	return captions
}

// Titles returns the title of every result in document order.
func Titles(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	titles := []string{}
	doc.Find(SelectorTitle).Each(func(_ int, s *goquery.Selection) {
		if t := normalize(s.Text()); t != "" {
			titles = append(titles, t)
		}
	})
	return titles, nil
}

// normalize collapses runs of whitespace. strings.Fields treats U+00A0 as
// space, which covers &nbsp; in captions.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
