package models

import (
	"strings"
	"time"
)

// DrawRecord represents one Bingo Bingo draw period.
// 同一期別只會有一列；period 為主鍵，補齊來源絕不覆寫既有期別。
type DrawRecord struct {
	Period        int64     `json:"period" gorm:"primaryKey;autoIncrement:false"`
	DrawTime      time.Time `json:"draw_time"`
	OpenOrder     string    `json:"open_order" gorm:"type:text;not null"` // 開出順序 20 顆，補零兩位、逗號分隔
	SpecialNumber int       `json:"special_number"`
	HighLow       *string   `json:"high_low"` // 官方 feed 才有的大小註記，補齊來源為 NULL
	OddEven       *string   `json:"odd_even"` // 官方 feed 才有的單雙註記
	FetchedAt     time.Time `json:"fetched_at"`
}

func (DrawRecord) TableName() string {
	return "draw_records"
}

// OpenOrderNumbers splits the stored open order back into its 20 tokens.
func (r *DrawRecord) OpenOrderNumbers() []string {
	if r.OpenOrder == "" {
		return nil
	}
	return strings.Split(r.OpenOrder, ",")
}

// JoinOpenOrder is the single place that defines the stored representation.
func JoinOpenOrder(tokens []string) string {
	return strings.Join(tokens, ",")
}
