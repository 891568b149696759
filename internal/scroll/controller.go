// Package scroll decides when the transcript should follow new content.
// The decision logic is pure; viewport geometry and the scroll effect sit
// behind the Probe interface so the controller is testable without a
// terminal.
package scroll

// Probe exposes the viewport geometry the controller reads and the single
// effect it triggers. In the TUI this is an adapter over the bubbles
// viewport; tests use a fake.
type Probe interface {
	// ScrollTop is the current scroll offset from the top, in lines.
	ScrollTop() int
	// ScrollHeight is the total content height, in lines.
	ScrollHeight() int
	// ClientHeight is the visible height, in lines.
	ClientHeight() int
	// ScrollToBottom scrolls the last turn into view.
	ScrollToBottom()
}

// DefaultTolerance is how close to the bottom (in lines) the viewport may
// drift and still count as "at bottom". A band rather than exact equality,
// so autoscroll is not missed by a line or two during reflow.
const DefaultTolerance = 8

// Controller owns the userScrolling flag and the autoscroll decision.
// It never mutates turns; it only reads geometry through the probe.
//
// Policy: userScrolling is authoritative. Once the user scrolls away from
// the bottom, content updates never autoscroll until the user returns to
// the bottom or sends a message.
type Controller struct {
	probe     Probe
	tolerance int

	// userScrolling is owned exclusively by this controller. Writers:
	// OnUserScroll (both directions) and OnUserSend (clear only).
	userScrolling bool
}

// NewController creates a controller over the given probe.
func NewController(probe Probe) *Controller {
	return &Controller{probe: probe, tolerance: DefaultTolerance}
}

// SetTolerance overrides the at-bottom tolerance band.
func (c *Controller) SetTolerance(lines int) {
	if lines >= 0 {
		c.tolerance = lines
	}
}

// UserScrolling reports whether the user has scrolled away from the bottom.
func (c *Controller) UserScrolling() bool {
	return c.userScrolling
}

// OnUserScroll records a manual scroll. Reaching the exact bottom clears
// the flag; anywhere else sets it.
func (c *Controller) OnUserScroll() {
	maxTop := c.probe.ScrollHeight() - c.probe.ClientHeight()
	c.userScrolling = c.probe.ScrollTop() < maxTop
}

// OnUserSend clears the flag unconditionally: sending a message means the
// user wants to follow the response.
func (c *Controller) OnUserSend() {
	c.userScrolling = false
}

// OnContentChanged runs the autoscroll decision for a content update:
// scroll the bottom into view when the viewport is within the tolerance
// band of the bottom and the user has not scrolled away.
func (c *Controller) OnContentChanged() {
	if c.userScrolling {
		return
	}
	if c.atBottom() {
		c.probe.ScrollToBottom()
	}
}

// atBottom applies the tolerance band:
// scrollTop - (scrollHeight - clientHeight) > -tolerance.
func (c *Controller) atBottom() bool {
	difference := c.probe.ScrollTop() - (c.probe.ScrollHeight() - c.probe.ClientHeight())
	return difference > -c.tolerance
}
