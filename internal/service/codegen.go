package service

import (
	"fmt"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/repository"
)

// dateKey 返回编号所用日期键（YYYYMMDD）
func dateKey(t time.Time) string {
	return t.Format("20060102")
}

// nextDailyCode 生成按日递增编号（PREFIX-YYYYMMDD-NNNNN）
func nextDailyCode(seqRepo repository.SequenceRepository, prefix string, now time.Time) (string, error) {
	key := dateKey(now)
	value, err := seqRepo.Next(prefix, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, key, value), nil
}

// formatInvoiceNumber 生成发票编号（INV-YYYYMMDD-{订单ID 零填充}）
func formatInvoiceNumber(prefix string, issuedAt time.Time, orderID uint) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, dateKey(issuedAt), orderID)
}
