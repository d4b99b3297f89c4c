package bingo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twentyNumbers renders n..n+19 wrapped to 1..80, comma separated.
func twentyNumbers(start int) string {
	parts := make([]string, 20)
	for i := 0; i < 20; i++ {
		parts[i] = fmt.Sprintf("%d", (start+i-1)%80+1)
	}
	return strings.Join(parts, ",")
}

func TestFindPeriodsMarkerForms(t *testing.T) {
	text := "第115011451期 開獎 ... 期別:115011452 ... 期別：115011453 ... 115011454期"
	hits := findPeriods(text)
	require.Len(t, hits, 4)
	assert.Equal(t, int64(115011451), hits[0].period)
	assert.Equal(t, int64(115011452), hits[1].period)
	assert.Equal(t, int64(115011453), hits[2].period)
	assert.Equal(t, int64(115011454), hits[3].period)
}

func TestFindPeriodsIgnoresShortNumbers(t *testing.T) {
	assert.Empty(t, findPeriods("第12345678期 開獎"), "8 digits is not a period")
}

func TestFindTwentyRun(t *testing.T) {
	t.Run("exactly twenty", func(t *testing.T) {
		run := findTwentyRun("開出順序 " + twentyNumbers(1))
		require.Len(t, run, 20)
		assert.Equal(t, "1", run[0])
		assert.Equal(t, "20", run[19])
	})

	t.Run("twenty one numbers rejected", func(t *testing.T) {
		assert.Nil(t, findTwentyRun(twentyNumbers(1)+",21"))
	})

	t.Run("long digit group breaks the run", func(t *testing.T) {
		// 期別數字卡在中間：前 10 顆與後 20 顆是兩段 run，只有後段成立
		window := twentyNumbers(1)[:len("1,2,3,4,5,6,7,8,9,10")] +
			" 115011453 " + twentyNumbers(31)
		run := findTwentyRun(window)
		require.Len(t, run, 20)
		assert.Equal(t, "31", run[0])
	})

	t.Run("non separator text breaks the run", func(t *testing.T) {
		window := "1,2,3 開獎時間未定 " + twentyNumbers(21)
		run := findTwentyRun(window)
		require.Len(t, run, 20)
		assert.Equal(t, "21", run[0])
	})

	t.Run("nothing usable", func(t *testing.T) {
		assert.Nil(t, findTwentyRun("今日尚無開獎資料"))
	})
}

func TestContainerScan(t *testing.T) {
	html := `<html><body>
		<div class="header">台灣彩券 BINGO BINGO 賓果賓果</div>
		<div class="today_result">
			第115011453期 開出順序 ` + twentyNumbers(5) + `
		</div>
		<div class="footer">客服專線與注意事項，本區塊沒有任何開獎數字。</div>
	</body></html>`

	rows := containerScan{}.attempt(newPage(html))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(115011453), rows[0].period)
	require.Len(t, rows[0].tokens, 20)
	assert.Equal(t, "5", rows[0].tokens[0])
	assert.Equal(t, 0, rows[0].special, "primary rows carry no explicit special")
}

func TestContainerScanMultipleRows(t *testing.T) {
	html := `<html><body><table>
		<tr><td>第115011451期</td><td>` + twentyNumbers(1) + `</td></tr>
		<tr><td>第115011452期</td><td>` + twentyNumbers(11) + `</td></tr>
	</table></body></html>`

	rows := containerScan{}.attempt(newPage(html))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(115011451), rows[0].period)
	assert.Equal(t, int64(115011452), rows[1].period)
}

func TestFullTextScan(t *testing.T) {
	text := "賓果賓果 期別:115011453 開出順序 " + twentyNumbers(3)
	rows := fullTextScan{}.attempt(newPage(text))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(115011453), rows[0].period)
	assert.Equal(t, "3", rows[0].tokens[0])
}

func TestFullTextScanNoData(t *testing.T) {
	assert.Empty(t, fullTextScan{}.attempt(newPage("第115011453期 開獎資料準備中")))
}

func TestScriptScan(t *testing.T) {
	html := `<html><head><script>
		var draw = { term: "第115011453期" };
		var balls = [5,17,3,42,64,28,9,71,33,50,12,60,8,25,47,2,39,55,19,64];
	</script></head><body>no visible numbers</body></html>`

	rows := scriptScan{}.attempt(newPage(html))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(115011453), rows[0].period)
	require.Len(t, rows[0].tokens, 20)
	assert.Equal(t, "5", rows[0].tokens[0])
	assert.Equal(t, "64", rows[0].tokens[19])
}

func TestScriptScanMarkerAfterArray(t *testing.T) {
	// 標記在陣列之後：退回「腳本中最後一個期別標記」
	html := `<script>
		var balls = [` + twentyNumbers(1) + `];
		var term = "期別:115011453";
	</script>`

	rows := scriptScan{}.attempt(newPage(html))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(115011453), rows[0].period)
}

func TestScriptScanIgnoresWrongLengthArrays(t *testing.T) {
	html := `<script>
		var term = "第115011453期";
		var partial = [1,2,3,4,5];
		var prices = [100,200,300];
	</script>`
	assert.Empty(t, scriptScan{}.attempt(newPage(html)))
}

func TestMirrorScan(t *testing.T) {
	text := `賓果賓果開獎列表
【期別: 115011451】 ` + twentyNumbers(1) + ` 超級獎號:20
【期別: 115011452】 5,17,3,42,64,28,9,71,33,50,12,60,8,25,47,2,39,55,19,7 超級獎號: 64
`
	rows := mirrorScan{}.attempt(newPage(text))
	require.Len(t, rows, 2)

	assert.Equal(t, int64(115011451), rows[0].period)
	assert.Equal(t, 20, rows[0].special)

	assert.Equal(t, int64(115011452), rows[1].period)
	require.Len(t, rows[1].tokens, 20)
	assert.Equal(t, "7", rows[1].tokens[19])
	assert.Equal(t, 64, rows[1].special, "explicit marker wins over the last ball")
}

func TestMirrorScanRejectsShortRows(t *testing.T) {
	text := "【期別: 115011453】 1,2,3,4,5 超級獎號:5"
	assert.Empty(t, mirrorScan{}.attempt(newPage(text)))
}
