package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// 資料儲存
	DatabasePath  string
	DataDir       string
	ExportLogPath string // 每次最新一期寫入時追加一行（純文字稽核檔），留空停用

	// 來源
	FeedURL     string   // 官方 LatestBingoResult JSON
	PrimaryURLs []string // 官方結果頁候選路徑（依序嘗試）
	MirrorURL   string   // 備援 pilio 列表頁

	// 排程（分鐘，對齊整點刻度）
	PollEveryMinutes     int
	BackfillEveryMinutes int

	// 抓取
	FetchTimeout     time.Duration
	FetchMaxAttempts int
	InsecureHosts    []string // 憑證鏈已知壞掉的來源，僅對這些 host 放寬驗證

	// 統計
	MinTodaySamples int // 當日樣本數門檻，低於此值推薦走混合回退

	// 開獎日界線使用的時區
	Location *time.Location
}

func Load() *Config {
	loc, err := time.LoadLocation(getEnv("DRAW_TIMEZONE", "Asia/Taipei"))
	if err != nil {
		loc = time.FixedZone("UTC+8", 8*60*60)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabasePath:  getEnv("DATABASE_PATH", "data/bingo.db"),
		DataDir:       getEnv("DATA_DIR", "data"),
		ExportLogPath: getEnv("EXPORT_LOG_PATH", "data/draws.log"),

		FeedURL: getEnv("FEED_URL", "https://api.taiwanlottery.com/TLCAPIWeB/Lottery/LatestBingoResult"),
		PrimaryURLs: splitList(getEnv("PRIMARY_URLS", strings.Join([]string{
			"https://www.taiwanlottery.com/lotto/result/bingo_bingo/?searchData=true",
			"https://www.taiwanlottery.com/lotto/result/bingo_bingo",
		}, ","))),
		MirrorURL: getEnv("MIRROR_URL", "https://www.pilio.idv.tw/bingo/list.asp"),

		PollEveryMinutes:     getEnvInt("POLL_EVERY_MINUTES", 5),
		BackfillEveryMinutes: getEnvInt("BACKFILL_EVERY_MINUTES", 30),

		FetchTimeout:     time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 20)) * time.Second,
		FetchMaxAttempts: getEnvInt("FETCH_MAX_ATTEMPTS", 4),
		InsecureHosts:    splitList(getEnv("INSECURE_HOSTS", "www.pilio.idv.tw")),

		MinTodaySamples: getEnvInt("MIN_TODAY_SAMPLES", 15),

		Location: loc,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
