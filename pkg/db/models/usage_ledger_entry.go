package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageLedgerEntry is the per-calendar-day spend accumulator. Rows are created
// lazily on the first spend of a day and only ever grow; once the day has
// passed the row is historical and immutable.
type UsageLedgerEntry struct {
	Day               string          `gorm:"column:day;primaryKey;type:varchar(10)"`
	DailyUsed         decimal.Decimal `gorm:"column:daily_used;type:numeric(14,2);not null"`
	MonthRunningTotal decimal.Decimal `gorm:"column:month_running_total;type:numeric(14,2);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (UsageLedgerEntry) TableName() string { return "usage_ledger_entries" }
