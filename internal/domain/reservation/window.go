package reservation

import (
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Window は [Start, End) の半開区間で表す予約時間帯
// 日付と時刻は別々に受け取るが、比較は必ず結合した時刻で行う
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow は日付と時刻の文字列から時間帯を作成する
func NewWindow(startDate, startClock, endDate, endClock string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := combine(startDate, startClock, loc)
	if err != nil {
		return Window{}, err
	}
	end, err := combine(endDate, endClock, loc)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func combine(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidWindowFormat
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, ErrInvalidWindowFormat
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
}

// parseClock は "15:04" と "15:04:05" の両方を受け付ける
func parseClock(s string) (time.Time, error) {
	if t, err := time.Parse(ClockLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", s)
}

// Validate は終了が開始より後であることを検証する
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps は2つの時間帯が1瞬でも重なるかを返す
// 終了と開始が一致するだけの隣接は重なりとみなさない
func (w Window) Overlaps(other Window) bool {
	return !(!w.End.After(other.Start) || !w.Start.Before(other.End))
}

// Equal は同じ時間帯かを返す
func (w Window) Equal(other Window) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// Duration は時間帯の長さを返す
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) StartDate() string  { return w.Start.Format(DateLayout) }
func (w Window) StartClock() string { return w.Start.Format(ClockLayout) }
func (w Window) EndDate() string    { return w.End.Format(DateLayout) }
func (w Window) EndClock() string   { return w.End.Format(ClockLayout) }

// StartsAfterDay は開始日が基準時刻の日付より厳密に後かを返す（日付単位の比較）
func (w Window) StartsAfterDay(now time.Time) bool {
	loc := w.Start.Location()
	sy, sm, sd := w.Start.Date()
	ny, nm, nd := now.In(loc).Date()
	startDay := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, loc)
	return startDay.After(today)
}
