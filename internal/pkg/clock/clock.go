// Package clock parses and formats service-day wall-clock times.
package clock

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinutesPerDay = 1440
	secondsPerDay = MinutesPerDay * 60
)

var (
	ErrLayout = errors.New("expected HH:MM:SS")
	ErrDigits = errors.New("non-numeric component")
	ErrHour   = errors.New("hour out of range 00-23")
	ErrMinute = errors.New("minute out of range 00-59")
	ErrSecond = errors.New("second out of range 00-59")
)

// ParseMinutes converts a strict HH:MM:SS string into minutes since midnight.
// Each component is exactly two digits; hours above 23 are rejected.
func ParseMinutes(s string) (float64, error) {
	if len(s) != 8 || s[2] != ':' || s[5] != ':' {
		return 0, ErrLayout
	}
	h, ok1 := twoDigits(s[0:2])
	m, ok2 := twoDigits(s[3:5])
	sec, ok3 := twoDigits(s[6:8])
	if !ok1 || !ok2 || !ok3 {
		return 0, ErrDigits
	}
	switch {
	case h > 23:
		return 0, ErrHour
	case m > 59:
		return 0, ErrMinute
	case sec > 59:
		return 0, ErrSecond
	}
	return float64(h*60+m) + float64(sec)/60, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// Split turns an absolute minute count into the service day it falls on and
// the HH:MM:SS clock reading within that day. Seconds are rounded.
func Split(minutes float64) (day int, hhmmss string) {
	total := int64(math.Round(minutes * 60))
	d := total / secondsPerDay
	rem := total % secondsPerDay
	if rem < 0 {
		rem += secondsPerDay
		d--
	}
	return int(d), fmt.Sprintf("%02d:%02d:%02d", rem/3600, rem%3600/60, rem%60)
}

// Format renders minutes since midnight as HH:MM:SS, wrapping past midnight.
func Format(minutes float64) string {
	_, s := Split(minutes)
	return s
}

// Label renders a clock reading with a "+Nd" suffix when it falls on a later day.
func Label(minutes float64) string {
	day, s := Split(minutes)
	if day > 0 {
		return fmt.Sprintf("%s +%dd", s, day)
	}
	return s
}
