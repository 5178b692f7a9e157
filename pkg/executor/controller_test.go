package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/dom"
)

type fakeLocator struct {
	count     int
	countErr  error
	clickErr  error
	fillErr   error
	selectErr error
	visible   bool
	evalOut   []byte
	evalErr   error

	clicks  int
	fills   []string
	selects []string
}

func (l *fakeLocator) Count(ctx context.Context) (int, error) { return l.count, l.countErr }
func (l *fakeLocator) First() browser.Locator                 { return l }
func (l *fakeLocator) Nth(i int) browser.Locator              { return l }

func (l *fakeLocator) Click(ctx context.Context, timeout time.Duration) error {
	l.clicks++
	return l.clickErr
}

func (l *fakeLocator) Fill(ctx context.Context, text string, timeout time.Duration) error {
	l.fills = append(l.fills, text)
	return l.fillErr
}

func (l *fakeLocator) SelectOption(ctx context.Context, label string, timeout time.Duration) error {
	if l.selectErr != nil {
		return l.selectErr
	}
	l.selects = append(l.selects, label)
	return nil
}

func (l *fakeLocator) Evaluate(ctx context.Context, script string, arg any) ([]byte, error) {
	if l.evalOut != nil || l.evalErr != nil {
		return l.evalOut, l.evalErr
	}
	return []byte("null"), nil
}

func (l *fakeLocator) TextContent(ctx context.Context) (string, error) { return "", nil }
func (l *fakeLocator) IsVisible(ctx context.Context) (bool, error)     { return l.visible, nil }
func (l *fakeLocator) ScrollIntoView(ctx context.Context, timeout time.Duration) error {
	return nil
}

type fakeExecPage struct {
	url          string
	locators     map[string]*fakeLocator
	locatorCalls int
	evalCalls    int
	navErr       error
	navigated    []string
}

func (p *fakeExecPage) URL() string             { return p.url }
func (p *fakeExecPage) Title() (string, error)  { return "fake page", nil }
func (p *fakeExecPage) Viewport() (int, int)    { return 1280, 720 }
func (p *fakeExecPage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }

func (p *fakeExecPage) WaitForReady(ctx context.Context, timeout time.Duration) error { return nil }

func (p *fakeExecPage) Navigate(ctx context.Context, url string) error {
	if p.navErr != nil {
		return p.navErr
	}
	p.navigated = append(p.navigated, url)
	p.url = url
	return nil
}

func (p *fakeExecPage) Evaluate(ctx context.Context, script string, arg any) ([]byte, error) {
	p.evalCalls++
	return []byte("null"), nil
}

func (p *fakeExecPage) Locator(selector string) browser.Locator {
	p.locatorCalls++
	if l, ok := p.locators[selector]; ok {
		return l
	}
	return &fakeLocator{}
}

type fakeExecTabs struct {
	mu    sync.Mutex
	pages []browser.Page
}

func (t *fakeExecTabs) Pages() []browser.Page {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]browser.Page(nil), t.pages...)
}

func (t *fakeExecTabs) open(p browser.Page) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pages = append(t.pages, p)
}

func intp(i int) *int { return &i }

// testSnapshot builds an index map with an input at 3, a button at 8, and
// a select at 12.
func testSnapshot() *dom.Snapshot {
	input := &dom.ElementNode{
		TagName:        "input",
		Attributes:     []dom.Attribute{{Name: "id", Value: "q"}},
		Visible:        true,
		Interactive:    true,
		HighlightIdx:   intp(3),
		StructuralPath: "/html[1]/body[1]/input[1]",
	}
	button := &dom.ElementNode{
		TagName:        "button",
		Attributes:     []dom.Attribute{{Name: "id", Value: "go"}},
		Visible:        true,
		Interactive:    true,
		HighlightIdx:   intp(8),
		StructuralPath: "/html[1]/body[1]/button[1]",
	}
	sel := &dom.ElementNode{
		TagName:        "select",
		Attributes:     []dom.Attribute{{Name: "id", Value: "region"}},
		Visible:        true,
		Interactive:    true,
		HighlightIdx:   intp(12),
		StructuralPath: "/html[1]/body[1]/select[1]",
	}
	root := &dom.ElementNode{TagName: "html", Children: []dom.Node{input, button, sel}}
	return &dom.Snapshot{
		Root:     root,
		IndexMap: map[int]*dom.ElementNode{3: input, 8: button, 12: sel},
	}
}

func newTestController(page *fakeExecPage, opts ...Option) (*Controller, *fakeExecTabs) {
	tabs := &fakeExecTabs{pages: []browser.Page{page}}
	registry := browser.NewRegistry(tabs)
	tracker := browser.NewTracker(registry,
		browser.WithPollInterval(time.Millisecond),
		browser.WithPollBudget(3),
		browser.WithReadyTimeout(5*time.Millisecond),
	)
	c := NewController(registry, tracker, opts...)
	c.SetSnapshot(testSnapshot())
	return c, tabs
}

func TestClickUnknownIndexFailsFastWithoutDriverCalls(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：click，对象：99，内容：]")

	assert.False(t, res.Success)
	assert.Equal(t, CategoryTargetNotFound, res.Category)
	assert.Zero(t, page.locatorCalls, "a dead index must not reach the driver")
}

func TestClickResolvesThroughIndexMap(t *testing.T) {
	btn := &fakeLocator{count: 1}
	page := &fakeExecPage{
		url:      "https://example.com",
		locators: map[string]*fakeLocator{`[id="go"]`: btn},
	}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：click，对象：8，内容：]")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, btn.clicks)
	assert.False(t, res.PageChanged)
	assert.Nil(t, c.Snapshot(), "a mutating action always discards the snapshot")
}

func TestClickDetectsNewTabAndInvalidatesSnapshot(t *testing.T) {
	popup := &fakeExecPage{url: "https://example.com/popup"}
	btn := &fakeLocator{count: 1}
	page := &fakeExecPage{
		url:      "https://example.com",
		locators: map[string]*fakeLocator{`[id="go"]`: btn},
	}
	c, tabs := newTestController(page)

	go func() {
		time.Sleep(time.Millisecond)
		tabs.open(popup)
	}()

	res := c.ExecuteRaw(context.Background(), "[操作：click，对象：8，内容：]")

	require.True(t, res.Success, res.Message)
	assert.True(t, res.PageChanged)
	assert.Equal(t, "https://example.com/popup", res.NewPageURL)
	assert.Nil(t, c.Snapshot(), "snapshot must be discarded after a page change")
}

func TestInputFillsIndexedField(t *testing.T) {
	field := &fakeLocator{count: 1}
	page := &fakeExecPage{
		url:      "https://example.com",
		locators: map[string]*fakeLocator{`[id="q"]`: field},
	}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：input，对象：3，内容：hello]")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"hello"}, field.fills)
	assert.False(t, res.PageChanged)
}

func TestInputRejectsNonInputElement(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：input，对象：8，内容：hello]")

	assert.False(t, res.Success)
	assert.Equal(t, CategoryTargetNotFound, res.Category)
	assert.Contains(t, res.Message, "<button>")
	assert.Zero(t, page.locatorCalls)
}

func TestSelectUsesNativePathFirst(t *testing.T) {
	region := &fakeLocator{count: 1}
	page := &fakeExecPage{
		url:      "https://example.com",
		locators: map[string]*fakeLocator{`[id="region"]`: region},
	}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：select，对象：12，内容：Europe]")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"Europe"}, region.selects)
	assert.Zero(t, region.clicks, "native selection must not open the widget")
}

func TestSelectFallsBackToClickingOptionText(t *testing.T) {
	widget := &fakeLocator{count: 1, selectErr: errors.New("not a select element")}
	option := &fakeLocator{count: 1, visible: true}
	page := &fakeExecPage{
		url: "https://example.com",
		locators: map[string]*fakeLocator{
			`[id="region"]`: widget,
			`text="Europe"`: option,
		},
	}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：select，对象：12，内容：Europe]")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, widget.clicks, "the widget must be opened first")
	assert.Equal(t, 1, option.clicks)
}

func TestSelectInvisibleOptionIsNotYetActionable(t *testing.T) {
	widget := &fakeLocator{count: 1, selectErr: errors.New("not a select element")}
	option := &fakeLocator{count: 1, visible: false}
	page := &fakeExecPage{
		url: "https://example.com",
		locators: map[string]*fakeLocator{
			`[id="region"]`: widget,
			`text="Europe"`: option,
		},
	}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：select，对象：12，内容：Europe]")

	assert.False(t, res.Success)
	assert.Equal(t, CategoryNotYetActionable, res.Category)
	assert.Zero(t, option.clicks)
}

func TestDropdownOptionsListsNativeSelect(t *testing.T) {
	region := &fakeLocator{
		count:   1,
		evalOut: []byte(`[{"label":"Asia","value":"as","selected":false},{"label":"Europe","value":"eu","selected":true}]`),
	}
	page := &fakeExecPage{
		url:      "https://example.com",
		locators: map[string]*fakeLocator{`[id="region"]`: region},
	}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：get_dropdown_options，对象：12，内容：]")

	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "Asia")
	assert.Contains(t, res.Message, "Europe (selected)")
}

func TestDropdownOptionsGuidesAwayFromNonSelect(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：get_dropdown_options，对象：8，内容：]")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "click")
	assert.Zero(t, page.locatorCalls)
}

func TestNavigateWithinScope(t *testing.T) {
	scope, err := NewScope([]string{"*.example.com", "example.com"})
	require.NoError(t, err)

	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page, WithScope(scope))

	res := c.ExecuteRaw(context.Background(), "[操作：navigate，对象：，内容：https://www.example.com/cart]")

	require.True(t, res.Success, res.Message)
	assert.True(t, res.PageChanged)
	assert.Equal(t, "https://www.example.com/cart", res.NewPageURL)
	assert.Nil(t, c.Snapshot())
}

func TestNavigateOutsideScopeIsBlocked(t *testing.T) {
	scope, err := NewScope([]string{"example.com"})
	require.NoError(t, err)

	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page, WithScope(scope))

	res := c.ExecuteRaw(context.Background(), "[操作：navigate，对象：，内容：https://evil.com/login]")

	assert.False(t, res.Success)
	assert.Empty(t, page.navigated)
	assert.Contains(t, res.Message, "outside the allowed scope")
}

func TestNavigateAddsSchemeWhenMissing(t *testing.T) {
	page := &fakeExecPage{url: "about:blank"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：navigate，对象：，内容：example.com]")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"https://example.com"}, page.navigated)
}

func TestWaitParsesDuration(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	start := time.Now()
	res := c.ExecuteRaw(context.Background(), "[操作：wait，对象：，内容：0.05]")

	require.True(t, res.Success, res.Message)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitRejectsGarbageDuration(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：wait，对象：，内容：a while]")

	assert.False(t, res.Success)
	assert.Equal(t, CategoryParseError, res.Category)
}

func TestScrollPage(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：scroll，对象：，内容：down 2]")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, page.evalCalls)
	assert.NotNil(t, c.Snapshot(), "scrolling keeps the snapshot valid")
}

func TestParseScrollAmount(t *testing.T) {
	cases := []struct {
		content string
		want    float64
	}{
		{"", 1},
		{"down", 1},
		{"up", -1},
		{"down 2", 2},
		{"up 0.5", -0.5},
		{"0.25", 0.25},
	}
	for _, tc := range cases {
		got, err := parseScrollAmount(tc.content)
		require.NoError(t, err, tc.content)
		assert.Equal(t, tc.want, got, tc.content)
	}

	_, err := parseScrollAmount("sideways")
	assert.Error(t, err)
}

func TestDoneCarriesSummary(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[操作：done，对象：，内容：booked the flight]")

	assert.True(t, res.Success)
	assert.True(t, res.Done)
	assert.Equal(t, "booked the flight", res.Message)
}

func TestExecuteBatchStopsAtFirstFailure(t *testing.T) {
	field := &fakeLocator{count: 1}
	page := &fakeExecPage{
		url:      "https://example.com",
		locators: map[string]*fakeLocator{`[id="q"]`: field},
	}
	c, _ := newTestController(page)

	results := c.ExecuteBatch(context.Background(), []ActionDescriptor{
		{Action: ActionInput, Target: "3", Content: "hello"},
		{Action: ActionClick, Target: "99"},
		{Action: ActionWait, Content: "5"},
	})

	require.Len(t, results, 2, "the wait after the failed click must not run")
	assert.True(t, results[0].Success)
	assert.Equal(t, CategoryTargetNotFound, results[1].Category)
}

func TestExecuteBatchStopsAfterDone(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	results := c.ExecuteBatch(context.Background(), []ActionDescriptor{
		{Action: ActionDone, Content: "all set"},
		{Action: ActionWait, Content: "5"},
	})

	require.Len(t, results, 1)
	assert.True(t, results[0].Done)
}

func TestExecuteRawReportsParseErrors(t *testing.T) {
	page := &fakeExecPage{url: "https://example.com"}
	c, _ := newTestController(page)

	res := c.ExecuteRaw(context.Background(), "[对象：8]")

	assert.False(t, res.Success)
	assert.Equal(t, CategoryParseError, res.Category)
}
