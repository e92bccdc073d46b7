package report

import (
	"math"
	"time"

	"github.com/hitoshi/teamboard/internal/model"
)

// Aggregate はメンバー1人分の集計結果。
type Aggregate struct {
	TotalSeconds int64
	// Daily は日付（DateLayout形式）ごとの合計秒数。記録のない日は含まない。
	Daily map[string]int64
}

// Group は作業時間記録をメンバー別・日別に1回の走査で集計する。
// 記録日時はlocの暦日に切り捨てて日別の区分を決める。
// 加算のみで構成されるため、入力の順序は結果に影響しない。
func Group(entries []model.LedgerEntry, loc *time.Location) map[int64]*Aggregate {
	groups := make(map[int64]*Aggregate)
	for _, e := range entries {
		agg, ok := groups[e.MemberID]
		if !ok {
			agg = &Aggregate{Daily: make(map[string]int64)}
			groups[e.MemberID] = agg
		}
		agg.TotalSeconds += e.DurationSeconds
		agg.Daily[e.LoggedAt.In(loc).Format(DateLayout)] += e.DurationSeconds
	}
	return groups
}

// Hours は秒数を時間に換算する。
func Hours(seconds int64) float64 {
	return float64(seconds) / 3600
}

// Round は表示用の丸めを行う。
// 1未満は小さな値が0と区別できるよう小数第3位、1以上は小数第1位に丸める。
func Round(v float64) float64 {
	if v < 1 {
		return math.Round(v*1000) / 1000
	}
	return math.Round(v*10) / 10
}

// AveragePerDay は1日あたりの平均時間を返す。daysが0以下なら0を返す。
func AveragePerDay(totalSeconds int64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return Hours(totalSeconds) / float64(days)
}
