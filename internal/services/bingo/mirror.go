package bingo

import (
	"regexp"
	"strconv"
)

// 備援鏡像（pilio 列表頁）是純文字版面：
// 【期別: 115011453】 01,02,... (20 顆) 超級獎號:64
var mirrorRowRe = regexp.MustCompile(`【期別[:：]\s*(\d{9,})】\s*([0-9,，\s]+?)\s*超級獎號[:：]\s*(\d{1,2})`)

// mirrorScan parses the mirror's idiosyncratic layout. Unlike the primary
// strategies it carries an explicit special number, which is authoritative
// for mirror-sourced rows.
type mirrorScan struct{}

func (mirrorScan) name() string { return "mirror_text" }

func (mirrorScan) attempt(p *page) []row {
	var rows []row
	for _, m := range mirrorRowRe.FindAllStringSubmatch(p.text, -1) {
		period, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		tokens := digitRunRe.FindAllString(m[2], -1)
		if len(tokens) > openOrderLen {
			tokens = tokens[:openOrderLen]
		}
		if len(tokens) != openOrderLen {
			continue
		}
		special, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		rows = append(rows, row{period: period, tokens: tokens, special: special})
	}
	return rows
}
