package browser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage implements Page for tracker tests.
type fakePage struct {
	url        string
	readyErr   error
	readyCalls int
}

func (p *fakePage) URL() string              { return p.url }
func (p *fakePage) Title() (string, error)   { return "fake", nil }
func (p *fakePage) Viewport() (int, int)     { return 1280, 720 }
func (p *fakePage) Navigate(ctx context.Context, url string) error { p.url = url; return nil }
func (p *fakePage) Evaluate(ctx context.Context, script string, arg any) ([]byte, error) {
	return []byte("null"), nil
}
func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (p *fakePage) Locator(selector string) Locator                { return nil }
func (p *fakePage) WaitForReady(ctx context.Context, timeout time.Duration) error {
	p.readyCalls++
	return p.readyErr
}

// fakeTabs implements TabContext with a mutable tab list.
type fakeTabs struct {
	mu    sync.Mutex
	pages []Page
}

func (f *fakeTabs) Pages() []Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Page, len(f.pages))
	copy(out, f.pages)
	return out
}

func (f *fakeTabs) open(p Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, p)
}

func newTestTracker(tabs *fakeTabs) (*Registry, *Tracker) {
	registry := NewRegistry(tabs)
	tracker := NewTracker(registry,
		WithPollInterval(5*time.Millisecond),
		WithPollBudget(10),
		WithReadyTimeout(10*time.Millisecond),
	)
	return registry, tracker
}

func TestDetectAndSwitchPromotesNewTab(t *testing.T) {
	first := &fakePage{url: "https://example.com/"}
	tabs := &fakeTabs{pages: []Page{first}}
	registry, tracker := newTestTracker(tabs)

	// A pop-up opens while the tracker is polling.
	go func() {
		time.Sleep(12 * time.Millisecond)
		tabs.open(&fakePage{url: "https://example.com/popup"})
	}()

	changed, url := tracker.DetectAndSwitch(context.Background(), 1, "https://example.com/")

	assert.True(t, changed)
	assert.Equal(t, "https://example.com/popup", url)
	assert.Equal(t, 1, registry.CurrentIndex())
}

func TestDetectAndSwitchReportsSameTabNavigation(t *testing.T) {
	page := &fakePage{url: "https://example.com/start"}
	tabs := &fakeTabs{pages: []Page{page}}
	_, tracker := newTestTracker(tabs)

	page.url = "https://example.com/next"

	changed, url := tracker.DetectAndSwitch(context.Background(), 1, "https://example.com/start")

	assert.True(t, changed)
	assert.Equal(t, "https://example.com/next", url)
}

func TestDetectAndSwitchNoChangeWithinBudget(t *testing.T) {
	page := &fakePage{url: "https://example.com/"}
	tabs := &fakeTabs{pages: []Page{page}}
	registry, tracker := newTestTracker(tabs)

	changed, url := tracker.DetectAndSwitch(context.Background(), 1, "https://example.com/")

	assert.False(t, changed)
	assert.Equal(t, "https://example.com/", url)
	assert.Equal(t, 0, registry.CurrentIndex())
}

func TestDetectAndSwitchToleratesReadyTimeout(t *testing.T) {
	first := &fakePage{url: "https://example.com/"}
	popup := &fakePage{url: "https://example.com/slow", readyErr: context.DeadlineExceeded}
	tabs := &fakeTabs{pages: []Page{first, popup}}
	_, tracker := newTestTracker(tabs)

	changed, url := tracker.DetectAndSwitch(context.Background(), 1, "https://example.com/")

	assert.True(t, changed)
	assert.Equal(t, "https://example.com/slow", url)
	assert.Equal(t, 1, popup.readyCalls)
}

func TestDetectAndSwitchHonorsCancellation(t *testing.T) {
	page := &fakePage{url: "https://example.com/"}
	tabs := &fakeTabs{pages: []Page{page}}
	_, tracker := newTestTracker(tabs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	changed, url := tracker.DetectAndSwitch(ctx, 1, "https://example.com/")

	assert.False(t, changed)
	assert.Equal(t, "https://example.com/", url)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRegistryFallsBackWhenCurrentTabCloses(t *testing.T) {
	a := &fakePage{url: "https://a/"}
	b := &fakePage{url: "https://b/"}
	tabs := &fakeTabs{pages: []Page{a, b}}
	registry := NewRegistry(tabs)
	registry.promote(1)

	tabs.mu.Lock()
	tabs.pages = tabs.pages[:1]
	tabs.mu.Unlock()

	page := registry.CurrentPage()
	require.NotNil(t, page)
	assert.Equal(t, "https://a/", page.URL())
}
