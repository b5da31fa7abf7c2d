package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// LatencyStats 延迟统计
type LatencyStats struct {
	P50Ms float64
	P95Ms float64
	P99Ms float64
	AvgMs float64
	N     int
}

// CompareRow 分裂策略对比的单行数据
type CompareRow struct {
	Strategy    string
	Capacity    int
	Dimension   int
	Points      int
	Height      int
	Size        int
	Nodes       int
	InsertMs    float64
	SearchMs    float64 // 固定查询区域的单次耗时
	Found       int
	Query       LatencyStats // 随机查询延迟
	BatchQPS    float64      // IntersectionQueryBatch 吞吐
	AllocsPerOp float64
	CPU         string
}

// Percentile 计算切片中第 p 百分位（0-100），输入需已排序
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p/100)]
}

// LatencyStatsFromDurations 从耗时列表计算 P50/P95/P99
func LatencyStatsFromDurations(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}
	ms := make([]float64, len(durations))
	var sum float64
	for i, d := range durations {
		ms[i] = Millis(d)
		sum += ms[i]
	}
	slices.Sort(ms)
	return LatencyStats{
		P50Ms: Percentile(ms, 50),
		P95Ms: Percentile(ms, 95),
		P99Ms: Percentile(ms, 99),
		AvgMs: sum / float64(len(ms)),
		N:     len(ms),
	}
}

// Millis 以毫秒表示耗时
func Millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// WriteCompareCSV 写入策略对比报告
func WriteCompareCSV(rows []CompareRow, path string) error {
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"Strategy", "Capacity", "Dimension", "Points", "Height", "Size", "Nodes",
		"InsertMs", "SearchMs", "Found", "QueryP50Ms", "QueryP99Ms", "BatchQPS", "AllocsPerOp", "CPU"})
	for _, r := range rows {
		w.Write([]string{
			r.Strategy,
			fmt.Sprintf("%d", r.Capacity),
			fmt.Sprintf("%d", r.Dimension),
			fmt.Sprintf("%d", r.Points),
			fmt.Sprintf("%d", r.Height),
			fmt.Sprintf("%d", r.Size),
			fmt.Sprintf("%d", r.Nodes),
			fmt.Sprintf("%.3f", r.InsertMs),
			fmt.Sprintf("%.3f", r.SearchMs),
			fmt.Sprintf("%d", r.Found),
			fmt.Sprintf("%.4f", r.Query.P50Ms),
			fmt.Sprintf("%.4f", r.Query.P99Ms),
			fmt.Sprintf("%.0f", r.BatchQPS),
			fmt.Sprintf("%.1f", r.AllocsPerOp),
			r.CPU,
		})
	}
	w.Flush()
	return w.Error()
}

// ReportDir 报告输出目录
const ReportDir = "report"

// ReportPath 生成 report/ 目录下带日期的报告路径
func ReportPath(prefix, ext string) string {
	return filepath.Join(ReportDir, prefix+time.Now().Format("20060102")+ext)
}

// WriteJSON 写入 JSON 报告（通用）
func WriteJSON(v any, path string) error {
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
