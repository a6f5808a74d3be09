package scheduler

import "time"

// IntervalSchedule 固定周期调度：tick 落在 start + k*every（k>=1）上。
// 只返回晚于当前时间的下一个边界，错过的 tick 不会补跑。
type IntervalSchedule struct {
	Start time.Time
	Every time.Duration
}

func Every(start time.Time, every time.Duration) IntervalSchedule {
	return IntervalSchedule{Start: start, Every: every}
}

// Next 实现 cron.Schedule
func (s IntervalSchedule) Next(t time.Time) time.Time {
	if s.Every <= 0 {
		return time.Time{}
	}
	if t.Before(s.Start) {
		return s.Start.Add(s.Every)
	}
	n := t.Sub(s.Start)/s.Every + 1
	return s.Start.Add(n * s.Every)
}
