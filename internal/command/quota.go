package command

import (
	"context"
	"fmt"
	"time"

	"github.com/kalambet/firmkit/internal/firmware"
	"github.com/kalambet/firmkit/internal/quota"
)

// QuotaCommandName is the command that shows the quota dashboard.
const QuotaCommandName = "firmware_quota"

// QuotaFetcher returns the current quota window.
type QuotaFetcher interface {
	Quota(ctx context.Context) (firmware.Quota, error)
}

// QuotaCommand fetches the quota window and posts the rendered dashboard.
type QuotaCommand struct {
	Fetcher  QuotaFetcher
	Renderer quota.Renderer
	Now      func() time.Time
}

func (q *QuotaCommand) Description() string {
	return "Show Firmware quota usage and time left in the current window"
}

// Dashboard fetches and renders the quota window.
func (q *QuotaCommand) Dashboard(ctx context.Context) (string, error) {
	snap, err := q.Fetcher.Quota(ctx)
	if err != nil {
		return "", err
	}
	now := time.Now
	if q.Now != nil {
		now = q.Now
	}
	return q.Renderer.Render(quota.Snapshot{Used: snap.Used, Reset: snap.Reset}, now()), nil
}

// Handle posts the dashboard into the invoking session.
func (q *QuotaCommand) Handle(ctx context.Context, inv Invocation, out Poster) (Outcome, error) {
	text, err := q.Dashboard(ctx)
	if err != nil {
		return Failed, err
	}
	if err := out.Post(ctx, inv.SessionID, text); err != nil {
		return Failed, fmt.Errorf("posting quota: %w", err)
	}
	return Handled, nil
}
