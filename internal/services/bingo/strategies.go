package bingo

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// row is one candidate draw reconstructed from a page. special stays 0
// unless the source carries an explicit marker (the mirror does).
type row struct {
	period  int64
	tokens  []string
	special int
}

// strategy is one extraction attempt over an already-fetched page. An empty
// result means "nothing here, try the next one", not an error.
type strategy interface {
	name() string
	attempt(p *page) []row
}

// page bundles the raw body with its parsed document and flattened text.
type page struct {
	raw  string
	doc  *goquery.Document
	text string
}

func newPage(raw string) *page {
	p := &page{raw: raw, text: raw}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		p.doc = doc
		p.text = doc.Text()
	}
	return p
}

// 期別標記：「第115011453期」「期別:115011453」「115011453期」都要吃得下
var periodMarkerRe = regexp.MustCompile(`(?:第|期別[:：]?)\s*(\d{9,})|(\d{9,})\s*期`)

type periodHit struct {
	pos    int // byte offset of the marker
	period int64
}

func findPeriods(text string) []periodHit {
	matches := periodMarkerRe.FindAllStringSubmatchIndex(text, -1)
	hits := make([]periodHit, 0, len(matches))
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		if start < 0 {
			continue
		}
		period, err := strconv.ParseInt(text[start:end], 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, periodHit{pos: m[0], period: period})
	}
	return hits
}

var digitRunRe = regexp.MustCompile(`\d+`)

// runSeparators are the only characters allowed between numbers of one run.
const runSeparators = " \t\r\n,，、.;|"

// findTwentyRun returns the first run of exactly 20 one-or-two-digit numbers
// in the window. Longer digit groups (period numbers, timestamps) break a
// run, as does any non-separator text between numbers.
func findTwentyRun(window string) []string {
	idx := digitRunRe.FindAllStringIndex(window, -1)
	var run []string
	runEnd := -1

	flush := func() []string {
		if len(run) == openOrderLen {
			return run
		}
		return nil
	}

	for _, m := range idx {
		start, end := m[0], m[1]
		token := window[start:end]
		gapOK := runEnd < 0 || strings.Trim(window[runEnd:start], runSeparators) == ""

		if len(token) > 2 || !gapOK {
			if done := flush(); done != nil {
				return done
			}
			run = nil
			if len(token) > 2 {
				runEnd = end
				continue
			}
		}
		run = append(run, token)
		runEnd = end
	}
	return flush()
}

// windowAround clamps a ±width byte window around pos.
func windowAround(text string, pos, width int) string {
	start := pos - width
	if start < 0 {
		start = 0
	}
	end := pos + width
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// scanTextForRows runs the period-then-window-then-20-numbers search over one
// block of text. seen enforces first-occurrence-wins across the whole pass.
func scanTextForRows(text string, width int, seen map[int64]bool) []row {
	var rows []row
	for _, hit := range findPeriods(text) {
		if seen[hit.period] {
			continue
		}
		tokens := findTwentyRun(windowAround(text, hit.pos, width))
		if tokens == nil {
			continue
		}
		seen[hit.period] = true
		rows = append(rows, row{period: hit.period, tokens: tokens})
	}
	return rows
}

// 搜尋視窗逐輪放寬
var scanWindows = []int{300, 480, 650}

// containerScan walks elements whose id/class hints at today's results (or
// generic structural containers with substantial text) and searches each
// container's text around every period marker.
type containerScan struct{}

func (containerScan) name() string { return "primary_container" }

func (containerScan) attempt(p *page) []row {
	if p.doc == nil {
		return nil
	}
	selector := `[id*="today"], [class*="today"], [id*="bingo"], [class*="bingo"], table, section, div`
	for _, width := range scanWindows {
		seen := make(map[int64]bool)
		var rows []row
		p.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := sel.Text()
			if len(strings.TrimSpace(text)) < 40 {
				return
			}
			rows = append(rows, scanTextForRows(text, width, seen)...)
		})
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}

// fullTextScan repeats the same search over the whole flattened page.
type fullTextScan struct{}

func (fullTextScan) name() string { return "primary_fulltext" }

func (fullTextScan) attempt(p *page) []row {
	for _, width := range scanWindows {
		if rows := scanTextForRows(p.text, width, make(map[int64]bool)); len(rows) > 0 {
			return rows
		}
	}
	return nil
}

// 內嵌 script 的字面陣列：恰好 20 個 1~2 位數
var scriptArrayRe = regexp.MustCompile(`\[\s*\d{1,2}(?:\s*,\s*\d{1,2}){19}\s*\]`)

const scriptPeriodWindow = 1200

// scriptScan digs bracketed 20-number literals out of inline scripts (the
// official result page is an SPA whose payload often only exists in JS).
// The nearest period marker before the array wins; if none precedes it, the
// last marker anywhere in the script is used.
type scriptScan struct{}

func (scriptScan) name() string { return "primary_script" }

func (scriptScan) attempt(p *page) []row {
	if p.doc == nil {
		return nil
	}
	seen := make(map[int64]bool)
	var rows []row
	p.doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		script := sel.Text()
		for _, m := range scriptArrayRe.FindAllStringIndex(script, -1) {
			tokens := digitRunRe.FindAllString(script[m[0]:m[1]], -1)
			if len(tokens) != openOrderLen {
				continue
			}
			period, ok := periodForArray(script, m[0])
			if !ok || seen[period] {
				continue
			}
			seen[period] = true
			rows = append(rows, row{period: period, tokens: tokens})
		}
	})
	return rows
}

func periodForArray(script string, arrayStart int) (int64, bool) {
	start := arrayStart - scriptPeriodWindow
	if start < 0 {
		start = 0
	}
	before := script[start:arrayStart]
	if hits := findPeriods(before); len(hits) > 0 {
		return hits[len(hits)-1].period, true
	}
	if hits := findPeriods(script); len(hits) > 0 {
		return hits[len(hits)-1].period, true
	}
	return 0, false
}
