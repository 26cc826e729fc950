package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// inspired by https://github.com/krayzpipes/cronticker/blob/main/cronticker/ticker.go

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type StdTicker struct {
	*time.Ticker
}

func (g *StdTicker) Chan() <-chan time.Time {
	return g.C
}

func NewStdTicker(d time.Duration) *StdTicker {
	return &StdTicker{time.NewTicker(d)}
}

var _ Ticker = (*StdTicker)(nil)

// CronTicker delivers ticks on C following a cron schedule.
type CronTicker struct {
	C chan time.Time
	k chan bool
}

var _ Ticker = (*CronTicker)(nil)

// Stop kills the CronTicker goroutine.
func (c *CronTicker) Stop() {
	c.k <- true
}

func (c *CronTicker) Chan() <-chan time.Time {
	return c.C
}

// NewTicker returns a CronTicker for schedule, or a StdTicker firing every
// fallback when schedule is empty.
func NewTicker(schedule string, fallback time.Duration) (Ticker, error) {
	if strings.TrimSpace(schedule) == "" {
		return NewStdTicker(fallback), nil
	}
	return NewCronTicker(schedule)
}

// NewCronTicker parses schedule (seconds field optional, descriptors such as
// @every 1m allowed, UTC unless a TZ= prefix is given) and starts ticking.
func NewCronTicker(schedule string) (*CronTicker, error) {
	scheduleWithTZ, loc, err := guaranteeTimeZone(schedule)
	if err != nil {
		return nil, err
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronSchedule, err := parser.Parse(scheduleWithTZ)
	if err != nil {
		return nil, err
	}

	cronTicker := &CronTicker{
		C: make(chan time.Time, 1),
		k: make(chan bool, 1),
	}
	go cronRunner(cronSchedule, loc, cronTicker.C, cronTicker.k)
	return cronTicker, nil
}

func guaranteeTimeZone(schedule string) (string, *time.Location, error) {
	if !strings.HasPrefix(schedule, "TZ=") {
		schedule = fmt.Sprintf("TZ=%s %s", "UTC", schedule)
	}
	end := strings.Index(schedule, " ")
	eq := strings.Index(schedule, "=")
	if end < 0 {
		return schedule, nil, fmt.Errorf("invalid schedule %q", schedule)
	}
	loc, err := time.LoadLocation(schedule[eq+1 : end])
	if err != nil {
		return schedule, nil, err
	}
	return schedule, loc, nil
}

func cronRunner(schedule cron.Schedule, loc *time.Location, c chan time.Time, k <-chan bool) {
	nextTick := schedule.Next(time.Now().In(loc))
	timer := time.NewTimer(time.Until(nextTick))
	for {
		select {
		case <-k:
			timer.Stop()
			return
		case tickTime := <-timer.C:
			// drop the tick if nobody consumed the previous one
			select {
			case c <- tickTime:
			default:
			}
			nextTick = schedule.Next(tickTime.In(loc))
			timer.Reset(time.Until(nextTick))
		}
	}
}
