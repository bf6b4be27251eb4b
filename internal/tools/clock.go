package tools

import (
	"context"
	"time"
)

// ClockTool reports the current local time. It takes no arguments and
// cannot fail.
type ClockTool struct {
	now func() time.Time
}

func NewClockTool() *ClockTool { return &ClockTool{now: time.Now} }

func (t *ClockTool) Name() string { return "get_time" }

func (t *ClockTool) Description() string {
	return "Get the current date and time."
}

func (t *ClockTool) Parameters() []Parameter { return nil }

func (t *ClockTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return t.now().Format("Monday, 2006-01-02 15:04:05 MST"), nil
}
