// Package quota renders the Firmware quota window as a fixed-width text
// dashboard.
package quota

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	DefaultWidth  = 26
	DefaultWindow = 5 * time.Hour
	DefaultTitle  = "Quota Window"

	filled      = "█"
	empty       = "░"
	dividerRune = "─"
	minDivider  = 46
	resetLayout = "Jan 2, 2006, 3:04 PM MST"
)

// Snapshot is the usage reported for the current window. Used is nominally
// in [0,1] but is clamped. A nil Reset means no window is active.
type Snapshot struct {
	Used  float64
	Reset *string
}

// Renderer turns a Snapshot into the dashboard text.
type Renderer struct {
	Width    int
	Window   time.Duration
	Location *time.Location
	Title    string
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithWidth(n int) Option { return func(r *Renderer) { r.Width = n } }

func WithWindow(d time.Duration) Option { return func(r *Renderer) { r.Window = d } }

// WithLocation sets the zone the reset time is printed in.
func WithLocation(loc *time.Location) Option { return func(r *Renderer) { r.Location = loc } }

func WithTitle(title string) Option { return func(r *Renderer) { r.Title = title } }

// NewRenderer returns a Renderer with a 26 cell bar, a 5 hour window and
// reset times shown in UTC.
func NewRenderer(opts ...Option) Renderer {
	r := Renderer{
		Width:    DefaultWidth,
		Window:   DefaultWindow,
		Location: time.UTC,
		Title:    DefaultTitle,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Render returns four lines: title, divider, usage and remaining time.
// The output depends only on s and now.
func (r Renderer) Render(s Snapshot, now time.Time) string {
	divider := strings.Repeat(dividerRune, max(len([]rune(r.Title)), minDivider))
	return strings.Join([]string{r.Title, divider, r.usedLine(s.Used), r.remainingLine(s.Reset, now)}, "\n")
}

func (r Renderer) usedLine(used float64) string {
	if math.IsNaN(used) {
		return fmt.Sprintf("Used      [%s] —", r.bar(0))
	}
	frac := clamp01(used)
	return fmt.Sprintf("Used      [%s] %3d%%", r.bar(frac), int(math.Round(frac*100)))
}

func (r Renderer) remainingLine(reset *string, now time.Time) string {
	if reset == nil {
		return fmt.Sprintf("Remaining [%s] — (No active window)", r.bar(0))
	}
	at, err := parseReset(*reset)
	if err != nil {
		return fmt.Sprintf("Remaining [%s] — (Invalid reset time)", r.bar(0))
	}

	diff := at.Sub(now)
	left := "now"
	frac := 0.0
	if diff > 0 {
		left = FormatDuration(diff)
		if r.Window > 0 {
			frac = math.Min(1, float64(diff)/float64(r.Window))
		} else {
			frac = 1
		}
	}

	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("Remaining [%s] %s (Resets at %s)", r.bar(frac), left, at.In(loc).Format(resetLayout))
}

// bar draws frac of Width as filled cells, rounding to the nearest cell.
func (r Renderer) bar(frac float64) string {
	width := max(r.Width, 0)
	n := int(math.Round(clamp01(frac) * float64(width)))
	return strings.Repeat(filled, n) + strings.Repeat(empty, width-n)
}

// FormatDuration prints d rounded to the minute as "1d 2h 3m". Days are
// omitted when zero; hours are shown when non-zero or when days are shown.
func FormatDuration(d time.Duration) string {
	total := int64(math.Round(d.Minutes()))
	if total < 0 {
		total = 0
	}
	days := total / (60 * 24)
	hours := (total % (60 * 24)) / 60
	minutes := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

// parseReset accepts ISO-8601 and the other common timestamp shapes.
// Timestamps without a zone are read as UTC.
func parseReset(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty reset time")
	}
	return dateparse.ParseIn(s, time.UTC)
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}
