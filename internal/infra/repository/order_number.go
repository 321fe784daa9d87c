package repository

import (
	"fmt"
	"time"
)

const OrderNumberPrefix = "ORD"

// OrderNumberDay 流水號以日期分段
func OrderNumberDay(now time.Time) string {
	return now.Format("20060102")
}

// FormatOrderNumber seq 超過 9999 時位數自然增加，仍然唯一
func FormatOrderNumber(day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", OrderNumberPrefix, day, seq)
}
