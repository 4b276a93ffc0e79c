package monitor

import (
	"fmt"
	"slices"
	"time"
)

// Alert levels.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Alert is a user-facing notification derived from events and status
// changes.
type Alert struct {
	Level   string
	Title   string
	Message string
	Time    time.Time
}

// EventAlert turns an event into the notification shown for it. Advisory
// wording escalates with the band.
func EventAlert(e Event) Alert {
	a := Alert{Time: e.At}
	switch e.Kind {
	case EventActivate:
		a.Level = LevelCritical
		a.Title = "Protocol Activated!"
		a.Message = fmt.Sprintf("You've been too productive! Time for the Performative Protocol... (score %.2f)", e.Effective)
	case EventAdvisory:
		switch {
		case e.Band >= 3:
			a.Level = LevelWarning
			a.Title = "Too productive"
			a.Message = "Warning: You're looking TOO productive!"
		case e.Band == 2:
			a.Level = LevelWarning
			a.Title = "Productivity rising"
			a.Message = "Productivity levels rising... take a break?"
		default:
			a.Level = LevelInfo
			a.Title = "Productivity detected"
			a.Message = "You're starting to look productive..."
		}
		a.Message += fmt.Sprintf(" (%s)", e.Band)
	case EventResume:
		a.Level = LevelInfo
		a.Title = "Cooldown over"
		a.Message = "Back to watching you work."
	}
	return a
}

// Compare detects status transitions worth telling the user about: pauses
// starting and ending, and sources dropping out or coming back.
func Compare(prev, curr Status) []Alert {
	var alerts []Alert
	now := curr.At

	switch {
	case curr.Paused && !prev.Paused:
		alerts = append(alerts, Alert{Level: LevelInfo, Title: "Monitoring paused", Message: curr.PauseReason, Time: now})
	case !curr.Paused && prev.Paused:
		alerts = append(alerts, Alert{Level: LevelInfo, Title: "Monitoring resumed", Message: "No game in focus", Time: now})
	}

	for _, mod := range curr.Unavailable {
		if !slices.Contains(prev.Unavailable, mod) {
			alerts = append(alerts, Alert{
				Level:   LevelWarning,
				Title:   fmt.Sprintf("Source unavailable: %s", mod),
				Message: fmt.Sprintf("The %s detector stopped reporting; scores will run lower", mod),
				Time:    now,
			})
		}
	}
	for _, mod := range prev.Unavailable {
		if !slices.Contains(curr.Unavailable, mod) {
			alerts = append(alerts, Alert{
				Level:   LevelInfo,
				Title:   fmt.Sprintf("Source recovered: %s", mod),
				Message: fmt.Sprintf("The %s detector is reporting again", mod),
				Time:    now,
			})
		}
	}
	return alerts
}
