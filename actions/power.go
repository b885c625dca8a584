package actions

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/playmixer/nova/lexicon"
)

var delayRe = regexp.MustCompile(`(\d+)\s+(second|minute|hour)`)

// MaxDelay is the longest delay a power action can be scheduled with.
const MaxDelay = 24 * time.Hour

var delayUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
}

// ParseDelay finds "in 5 minutes" style delays in an utterance. Delays
// longer than MaxDelay are rejected with ErrBadDelay.
func ParseDelay(text string) (time.Duration, error) {
	m := delayRe.FindStringSubmatch(text)
	if m == nil {
		return 0, nil
	}
	unit := delayUnits[m[2]]
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n > int64(MaxDelay/unit) {
		return 0, fmt.Errorf("%w: %s %s", ErrBadDelay, m[1], m[2])
	}
	return time.Duration(n) * unit, nil
}

var powerVerbs = map[string]string{
	"shutdown":  "shut down your computer",
	"restart":   "restart your computer",
	"lock":      "lock your computer",
	"sleep":     "put your computer to sleep",
	"hibernate": "hibernate your computer",
	"logout":    "log you out",
}

// PowerControl handles SystemControl. Unless Allow is set it only reports
// what it would do.
type PowerControl struct {
	GOOS   string
	Runner Runner
	Allow  bool
}

func (p *PowerControl) Execute(ctx context.Context, params map[string]string) (Result, error) {
	action := params[lexicon.ParamAction]
	verb, ok := powerVerbs[action]
	if !ok {
		return Fail("I'm not sure which system command you want to execute."), fmt.Errorf("%w: action %q", ErrMissingParam, action)
	}
	delay, err := ParseDelay(params[lexicon.ParamUtterance])
	if err != nil {
		return Fail("I can only schedule that up to %s ahead.", spokenDuration(MaxDelay)), err
	}
	when := " now"
	if delay > 0 {
		when = " in " + spokenDuration(delay)
	}
	if action == "lock" || action == "logout" || action == "sleep" || action == "hibernate" {
		when = ""
	}

	if !p.Allow {
		return Ok("I'll %s%s after confirmation.", verb, when), nil
	}

	name, args, err := powerCommand(p.GOOS, action, delay)
	if err != nil {
		return Fail("I couldn't %s. %s is not supported here.", verb, action), err
	}
	if out, err := p.Runner.Run(ctx, name, args...); err != nil {
		return Fail("I couldn't %s.", verb), fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return Ok("Okay, I'll %s%s.", verb, when), nil
}

func powerCommand(goos, action string, delay time.Duration) (string, []string, error) {
	secs := int(delay / time.Second)
	switch goos {
	case "windows":
		switch action {
		case "shutdown":
			return "shutdown", []string{"/s", "/t", strconv.Itoa(secs)}, nil
		case "restart":
			return "shutdown", []string{"/r", "/t", strconv.Itoa(secs)}, nil
		case "lock":
			return "rundll32.exe", []string{"user32.dll,LockWorkStation"}, nil
		case "sleep":
			return "rundll32.exe", []string{"powrprof.dll,SetSuspendState", "0,1,0"}, nil
		case "hibernate":
			return "shutdown", []string{"/h"}, nil
		case "logout":
			return "shutdown", []string{"/l"}, nil
		}
	case "linux":
		when := "now"
		if secs > 0 {
			when = "+" + strconv.Itoa((secs+59)/60)
		}
		switch action {
		case "shutdown":
			return "shutdown", []string{"-h", when}, nil
		case "restart":
			return "shutdown", []string{"-r", when}, nil
		case "lock":
			return "loginctl", []string{"lock-session"}, nil
		case "sleep":
			return "systemctl", []string{"suspend"}, nil
		case "hibernate":
			return "systemctl", []string{"hibernate"}, nil
		case "logout":
			return "loginctl", []string{"terminate-user", os.Getenv("USER")}, nil
		}
	}
	return "", nil, fmt.Errorf("%s on %s: %w", action, goos, ErrUnsupported)
}

func spokenDuration(d time.Duration) string {
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	secs := int(d / time.Second)
	if secs < 60 {
		return plural(secs, "second")
	}
	mins := secs / 60
	if mins < 60 {
		return plural(mins, "minute")
	}
	hours, mins := mins/60, mins%60
	if mins == 0 {
		return plural(hours, "hour")
	}
	return plural(hours, "hour") + " and " + plural(mins, "minute")
}
