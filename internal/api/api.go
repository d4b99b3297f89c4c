package api

import (
	"fmt"
	"net/http"
	"os"

	"bingo-tracker/internal/services/bingo"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type APIHandler struct {
	svc *bingo.Service
	hub *Hub
	log *zap.SugaredLogger
}

func SetupRoutes(r *gin.Engine, svc *bingo.Service, hub *Hub, log *zap.SugaredLogger) *APIHandler {
	handler := &APIHandler{svc: svc, hub: hub, log: log}

	r.Use(headersMiddleware())

	r.GET("/", handler.Index)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/latest", handler.GetLatest)
		apiGroup.POST("/poll", handler.ForcePoll)
		apiGroup.POST("/backfill", handler.ForceBackfill)
		apiGroup.GET("/today", handler.GetToday)
		apiGroup.GET("/today/stats", handler.GetTodayStats)
		apiGroup.GET("/export", handler.ExportToday)
	}

	debug := r.Group("/debug")
	{
		debug.GET("/snapshot", handler.DebugSnapshot)
		debug.GET("/snapshot/head", handler.SnapshotHead)
		debug.GET("/snapshot/download", handler.SnapshotDownload)
	}

	r.GET("/ws/live", hub.Serve)

	return handler
}

// headersMiddleware disables caching on every response and keeps the API
// reachable from any origin, matching what the data consumers expect.
func headersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func jsonError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

func (h *APIHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name": "Bingo Bingo Data API",
		"endpoints": gin.H{
			"/api/latest":            "最新一期（已入庫）",
			"/api/poll":              "立即抓官方最新一期",
			"/api/backfill":          "立即補齊今天",
			"/api/today":             "今天已入庫的所有期別",
			"/api/today/stats":       "今日統計與推薦",
			"/api/export":            "今日資料匯出 XLSX",
			"/debug/snapshot":        "抓官方結果頁並寫快照",
			"/debug/snapshot/head":   "預覽快照前 2000 字",
			"/debug/snapshot/download": "下載快照",
			"/ws/live":               "最新開獎即時推播",
		},
	})
}

func (h *APIHandler) GetLatest(c *gin.Context) {
	rec, err := h.svc.Latest()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		jsonError(c, http.StatusNotFound, "no draw records stored yet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "record": rec})
}

func (h *APIHandler) ForcePoll(c *gin.Context) {
	res := h.svc.PollOnce(c.Request.Context())
	status := http.StatusOK
	if !res.OK {
		status = http.StatusBadGateway
	}
	c.JSON(status, res)
}

func (h *APIHandler) ForceBackfill(c *gin.Context) {
	res := h.svc.BackfillOnce(c.Request.Context())
	status := http.StatusOK
	if !res.OK {
		status = http.StatusBadGateway
	}
	c.JSON(status, res)
}

func (h *APIHandler) GetToday(c *gin.Context) {
	recs, err := h.svc.TodayRecords()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(recs), "records": recs})
}

func (h *APIHandler) GetTodayStats(c *gin.Context) {
	st, err := h.svc.TodayStats()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": st})
}

// ExportToday streams today's records as an XLSX workbook.
func (h *APIHandler) ExportToday(c *gin.Context) {
	recs, err := h.svc.TodayRecords()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"期別", "開獎時間", "開出順序", "特別獎號", "抓取時間"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hdr)
	}
	for i, rec := range recs {
		rowIdx := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIdx), rec.Period)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIdx), rec.DrawTime.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowIdx), rec.OpenOrder)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowIdx), rec.SpecialNumber)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", rowIdx), rec.FetchedAt.Format("2006-01-02 15:04:05"))
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="bingo_today.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		h.log.Warnf("xlsx export failed: %v", err)
	}
}

func (h *APIHandler) DebugSnapshot(c *gin.Context) {
	snapshots, ok := h.svc.DebugSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": ok, "snapshots": snapshots})
}

const snapshotHeadBytes = 2000

func (h *APIHandler) SnapshotHead(c *gin.Context) {
	data, err := os.ReadFile(h.svc.SnapshotPath())
	if err != nil {
		jsonError(c, http.StatusNotFound, "snapshot not found, call /debug/snapshot first")
		return
	}
	if len(data) > snapshotHeadBytes {
		data = data[:snapshotHeadBytes]
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (h *APIHandler) SnapshotDownload(c *gin.Context) {
	path := h.svc.SnapshotPath()
	if _, err := os.Stat(path); err != nil {
		jsonError(c, http.StatusNotFound, "snapshot not found, call /debug/snapshot first")
		return
	}
	c.FileAttachment(path, "last_primary.html")
}
