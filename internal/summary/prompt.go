package summary

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

// SystemPrompt is sent with every summarizer request.
const SystemPrompt = "你是一个专业的气象摘要助手，请将多条天气预警合并为简明、无重复的摘要，相同类型预警只保留一条。"

const (
	maxObservationsPerKind = 3
	promptHourly           = 6
	promptDays             = 2
)

// outlookPrompt describes one city's observations, periods and days and asks
// for a one-line outlook of about 30 characters.
func outlookPrompt(s domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "城市：%s\n\n", s.City)

	if !s.Observations.IsEmpty() {
		b.WriteString("📊 当前观测数据：\n")
		if obs := s.Observations.Extremes; len(obs) > 0 {
			b.WriteString("- 极端天气观测：\n")
			for _, o := range obs[:min(len(obs), maxObservationsPerKind)] {
				fmt.Fprintf(&b, "  * %s: %s %s\n", o.Station, o.Kind, o.Value)
			}
		}
		if obs := s.Observations.HeavyRain; len(obs) > 0 {
			b.WriteString("- 强降雨观测：\n")
			for _, o := range obs[:min(len(obs), maxObservationsPerKind)] {
				fmt.Fprintf(&b, "  * %s: %s\n", o.Station, o.Value)
			}
		}
		if obs := s.Observations.ClimateAnomalies; len(obs) > 0 {
			b.WriteString("- 气候异常观测：\n")
			for _, o := range obs[:min(len(obs), maxObservationsPerKind)] {
				fmt.Fprintf(&b, "  * %s: %s", o.Station, o.Value)
				if o.Date != "" {
					fmt.Fprintf(&b, " (%s)", o.Date)
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if len(s.Hourly) > 0 {
		b.WriteString("未来24小时详细预报：\n")
		for _, h := range s.Hourly[:min(len(s.Hourly), promptHourly)] {
			fmt.Fprintf(&b, "- %s: %s", orNA(h.Time), orNA(h.Text))
			if h.Temp != "" {
				fmt.Fprintf(&b, ", %s℃", h.Temp)
			}
			if h.TempMax != "" {
				fmt.Fprintf(&b, ", 最高%s℃", h.TempMax)
			}
			if h.TempMin != "" {
				fmt.Fprintf(&b, ", 最低%s℃", h.TempMin)
			}
			if h.Precip != "" {
				fmt.Fprintf(&b, ", 降雨机率%s%%", h.Precip)
			}
			b.WriteString("\n")
		}
	}

	if len(s.Weekly) > 0 {
		b.WriteString("\n未来两日总结：\n")
		for _, d := range s.Weekly[:min(len(s.Weekly), promptDays)] {
			fmt.Fprintf(&b, "- %s: 白天%s, 夜间%s", orNA(d.Date), orNA(d.TextDay), orNA(d.TextNight))
			if d.TempMax != "" && d.TempMin != "" {
				fmt.Fprintf(&b, ", %s~%s℃", d.TempMin, d.TempMax)
			}
			if d.Precip != "" {
				fmt.Fprintf(&b, ", 降雨机率%s%%", d.Precip)
			}
			b.WriteString("\n")
		}
	}

	return fmt.Sprintf(`基于天气数据和观测数据生成极简天气总结：

%s

要求：
- 格式：🌤️ **%s未来两日**：[一句话总结]
- 长度：严格控制在30字以内
- 内容：结合观测数据，包含关键天气+温度范围+一个核心提醒
- 风格：简洁实用，如果有观测异常要特别提醒
- 观测数据优先级：极端天气 > 强降雨 > 气候异常

示例：多云转雷雨，27~36℃，明日午后备雨具（观测到强降雨需注意）`, b.String(), s.City)
}

// digestPrompt asks for a digest of the rendered warnings of about 150
// characters.
func digestPrompt(warnings string) string {
	return fmt.Sprintf(`对预警信息进行极简摘要：

%s

要求：
1. **台风信息**：保持现有格式
2. **市级预警**：合并同类预警，保留重要城市名称，如有时间信息需保留
3. **其他区域预警**：合并为1-2句话，保留关键地区名称和时间信息
4. **总体**：总长度控制在150字以内，突出关键信息和时效性

示例格式：
- 台风：台风「XX」对台湾影响较小
- 市级：豪雨特报覆盖台中市、高雄市、台南市（15:05-23:00）；雷雨提醒：台中市、台南市、高雄市有雷雨
- 其他：西南气流影响，新竹市、兰屿、绿岛有强风，山区防坍方`, warnings)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
