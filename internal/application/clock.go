package application

import "time"

// Clock は現在時刻の取得元。テストで固定できるように抽象化している
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock は実時間を返す Clock
var SystemClock Clock = systemClock{}

// startOfDay は loc における t の日付の 0 時を返す
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
