package report

import (
	"time"

	"github.com/hitoshi/teamboard/internal/model"
)

// Location はレポートの暦日を決める固定タイムゾーン（UTC+8、夏時間なし）。
var Location = time.FixedZone("UTC+8", 8*60*60)

// DateLayout はレスポンスに載せる日付の形式。
const DateLayout = "2006-01-02"

// MaxWindowDays は1回のレポートで扱える最大日数。
const MaxWindowDays = 366

// 受け付ける日付入力の形式。タイムゾーン指定のないものはLocationの時刻とみなす。
var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// Window はレポート対象の期間。Startは開始日の0時、Endは終了日の翌日0時（排他的）。
type Window struct {
	Start time.Time
	End   time.Time
}

// Days は期間に含まれる日数を返す。
// 固定オフセットのため、差分を24時間で割った値が暦日数と一致する。
func (w Window) Days() int {
	return int(w.End.Sub(w.Start) / (24 * time.Hour))
}

// Dates は期間内の日付を昇順で返す。
func (w Window) Dates() []string {
	dates := make([]string, 0, w.Days())
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// ParseWindow は開始日と終了日の文字列から期間を組み立てる。
// 両端ともlocの暦日の0時に切り捨て、終了日は1日進めて排他的な上限とする。
// 形式不正は項目ごとの問題を含むINVALID_INPUT、開始日が終了日より後ならINVALID_RANGEを返す。
func ParseWindow(start, end string, loc *time.Location) (Window, error) {
	var problems []model.FieldProblem

	startAt, ok := parseDate(start, loc)
	if !ok {
		problems = append(problems, dateProblem("start_date", start))
	}
	endAt, ok := parseDate(end, loc)
	if !ok {
		problems = append(problems, dateProblem("end_date", end))
	}
	if len(problems) > 0 {
		return Window{}, model.NewInvalidInputError(problems)
	}

	startDay := truncateDay(startAt, loc)
	endDay := truncateDay(endAt, loc)
	if startDay.After(endDay) {
		return Window{}, model.NewInvalidRangeError()
	}

	w := Window{Start: startDay, End: endDay.AddDate(0, 0, 1)}
	if w.Days() > MaxWindowDays {
		return Window{}, model.NewInvalidInputError([]model.FieldProblem{
			{Field: "end_date", Problem: "range must not exceed 366 days"},
		})
	}
	return w, nil
}

func dateProblem(field, value string) model.FieldProblem {
	if value == "" {
		return model.FieldProblem{Field: field, Problem: "required"}
	}
	return model.FieldProblem{Field: field, Problem: "must be an ISO-8601 date or date-time"}
}

// parseDate はISO-8601形式の日付・日時を解釈する。
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truncateDay はlocにおける暦日の0時を返す。
func truncateDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
