package actions

import (
	"context"
	"time"

	"github.com/playmixer/nova/lexicon"
)

// Clock handles TimeQuery.
type Clock struct {
	Now func() time.Time
}

func NewClock() *Clock {
	return &Clock{Now: time.Now}
}

func (c *Clock) Execute(ctx context.Context, params map[string]string) (Result, error) {
	now := c.Now()
	if params[lexicon.ParamKind] == "date" {
		return Ok("Today is %s.", now.Format("Monday, January 02, 2006")), nil
	}
	return Ok("The current time is %s.", now.Format("03:04 PM")), nil
}
