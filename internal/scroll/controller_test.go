package scroll

import "testing"

// fakeProbe is a scriptable viewport for tests.
type fakeProbe struct {
	top, height, client int
	scrolled            int
}

func (f *fakeProbe) ScrollTop() int    { return f.top }
func (f *fakeProbe) ScrollHeight() int { return f.height }
func (f *fakeProbe) ClientHeight() int { return f.client }
func (f *fakeProbe) ScrollToBottom() {
	f.scrolled++
	f.top = f.height - f.client
}

func TestAutoscrollAtBottom(t *testing.T) {
	p := &fakeProbe{top: 80, height: 100, client: 20} // exactly at bottom
	c := NewController(p)

	c.OnContentChanged()
	if p.scrolled != 1 {
		t.Errorf("scrolled = %d, want 1", p.scrolled)
	}
}

func TestAutoscrollWithinToleranceBand(t *testing.T) {
	p := &fakeProbe{top: 75, height: 100, client: 20} // 5 lines above bottom
	c := NewController(p)

	c.OnContentChanged()
	if p.scrolled != 1 {
		t.Errorf("within tolerance should autoscroll, scrolled = %d", p.scrolled)
	}
}

func TestNoAutoscrollFarFromBottom(t *testing.T) {
	p := &fakeProbe{top: 10, height: 100, client: 20}
	c := NewController(p)

	c.OnContentChanged()
	if p.scrolled != 0 {
		t.Errorf("far from bottom must not autoscroll, scrolled = %d", p.scrolled)
	}
}

func TestUserScrollingIsAuthoritative(t *testing.T) {
	p := &fakeProbe{top: 10, height: 100, client: 20}
	c := NewController(p)

	c.OnUserScroll()
	if !c.UserScrolling() {
		t.Fatal("scrolling away from bottom should set userScrolling")
	}

	// Even if geometry later says "at bottom" (e.g. content shrank),
	// userScrolling gates the autoscroll.
	p.top = 80
	c.OnContentChanged()
	if p.scrolled != 0 {
		t.Errorf("userScrolling must suppress autoscroll, scrolled = %d", p.scrolled)
	}
}

func TestReturningToBottomClearsFlag(t *testing.T) {
	p := &fakeProbe{top: 10, height: 100, client: 20}
	c := NewController(p)
	c.OnUserScroll()

	p.top = 80 // user scrolled back to the exact bottom
	c.OnUserScroll()
	if c.UserScrolling() {
		t.Error("reaching the bottom should clear userScrolling")
	}

	c.OnContentChanged()
	if p.scrolled != 1 {
		t.Errorf("autoscroll should resume after returning to bottom, scrolled = %d", p.scrolled)
	}
}

func TestSendClearsUserScrolling(t *testing.T) {
	p := &fakeProbe{top: 10, height: 100, client: 20}
	c := NewController(p)
	c.OnUserScroll()

	c.OnUserSend()
	if c.UserScrolling() {
		t.Error("outbound send must clear userScrolling unconditionally")
	}
}

func TestSetTolerance(t *testing.T) {
	p := &fakeProbe{top: 70, height: 100, client: 20} // 10 lines above bottom
	c := NewController(p)

	c.OnContentChanged()
	if p.scrolled != 0 {
		t.Fatalf("outside default tolerance, scrolled = %d", p.scrolled)
	}

	c.SetTolerance(15)
	p.top = 70
	c.OnContentChanged()
	if p.scrolled != 1 {
		t.Errorf("within widened tolerance, scrolled = %d", p.scrolled)
	}
}

func TestShortContentCountsAsBottom(t *testing.T) {
	// Content shorter than the viewport: maxTop is negative, difference
	// positive, always "at bottom".
	p := &fakeProbe{top: 0, height: 5, client: 20}
	c := NewController(p)

	c.OnUserScroll()
	if c.UserScrolling() {
		t.Error("short content should never count as scrolled away")
	}
	c.OnContentChanged()
	if p.scrolled != 1 {
		t.Errorf("short content should autoscroll, scrolled = %d", p.scrolled)
	}
}
