package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/wesleywang11/tpx-signal-watch/internal/model"
)

// FormatAlert renders a confirmation alert for push channels.
func FormatAlert(ev model.AlertEvent, stageLabel string) Message {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("策略: %s\n", ev.Variant))
	b.WriteString(fmt.Sprintf("阶段: %s\n", stageLabel))
	b.WriteString(fmt.Sprintf("状态: %s\n", ev.Status))
	b.WriteString(fmt.Sprintf("时间: %s", ev.FiredAt.Format("2006-01-02 15:04")))
	return Message{
		Title: fmt.Sprintf("🚨 %s 信号确认", ev.Ticker),
		Body:  b.String(),
	}
}

// DailySummary aggregates one trading day for the after-close report.
type DailySummary struct {
	Date       time.Time
	Scans      int
	Alerts     int
	Errors     int
	StageLines []string
}

// FormatDailySummary renders the after-close report.
func FormatDailySummary(sum DailySummary) Message {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("扫描轮次: %d\n", sum.Scans))
	b.WriteString(fmt.Sprintf("触发告警: %d\n", sum.Alerts))
	b.WriteString(fmt.Sprintf("采集错误: %d\n", sum.Errors))
	if len(sum.StageLines) > 0 {
		b.WriteString("\n📈 <b>在途信号:</b>\n")
		for _, line := range sum.StageLines {
			b.WriteString("  " + line + "\n")
		}
	} else {
		b.WriteString("\n当前无在途信号\n")
	}
	return Message{
		Title: fmt.Sprintf("📊 盘后汇总 | %s", sum.Date.Format("2006-01-02")),
		Body:  strings.TrimRight(b.String(), "\n"),
	}
}
