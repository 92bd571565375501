package utils

import (
	"fmt"
	"time"
)

// LoadLocationOrDefault 解析IANA时区名称，解析失败或为空时回退到默认时区
func LoadLocationOrDefault(name, defaultName string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(defaultName); err == nil {
		return loc
	}
	return time.UTC
}

// LocalInstant 把"某个日期在某时区的某个整点"转换为绝对时刻。
// 必须按具体日期构造当地墙上时间再转换，同一房源在夏令时切换前后偏移量不同，
// 不允许缓存固定偏移量做加减。
func LocalInstant(date time.Time, hour int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, loc)
}

// FormatShortDate 把日期格式化为"Jun 10"形式的显示文本
func FormatShortDate(t time.Time) string {
	return fmt.Sprintf("%s %d", t.Format("Jan"), t.Day())
}
