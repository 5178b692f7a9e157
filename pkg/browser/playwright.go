package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightContext adapts a Playwright browser context to TabContext.
type playwrightContext struct {
	ctx      playwright.BrowserContext
	viewport Viewport
}

// NewPlaywrightContext wraps a Playwright browser context so the registry and
// tracker can observe its tabs.
func NewPlaywrightContext(ctx playwright.BrowserContext, viewport Viewport) TabContext {
	return &playwrightContext{ctx: ctx, viewport: viewport}
}

func (c *playwrightContext) Pages() []Page {
	raw := c.ctx.Pages()
	pages := make([]Page, len(raw))
	for i, p := range raw {
		pages[i] = &playwrightPage{page: p, viewport: c.viewport}
	}
	return pages
}

// playwrightPage adapts playwright.Page to the Page capability surface.
type playwrightPage struct {
	page     playwright.Page
	viewport Viewport
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Evaluate(ctx context.Context, script string, arg any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result any
	var err error
	if arg == nil {
		result, err = p.page.Evaluate(script)
	} else {
		result, err = p.page.Evaluate(script, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return json.Marshal(result)
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.page.Screenshot(playwright.PageScreenshotOptions{})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (p *playwrightPage) Locator(selector string) Locator {
	return &playwrightLocator{locator: p.page.Locator(selector)}
}

func (p *playwrightPage) Viewport() (int, int) {
	return p.viewport.Width, p.viewport.Height
}

// playwrightLocator adapts playwright.Locator.
type playwrightLocator struct {
	locator playwright.Locator
}

func (l *playwrightLocator) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.locator.Count()
}

func (l *playwrightLocator) First() Locator {
	return &playwrightLocator{locator: l.locator.First()}
}

func (l *playwrightLocator) Nth(index int) Locator {
	return &playwrightLocator{locator: l.locator.Nth(index)}
}

func (l *playwrightLocator) Click(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (l *playwrightLocator) Fill(ctx context.Context, text string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.locator.Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (l *playwrightLocator) SelectOption(ctx context.Context, label string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := l.locator.SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{label},
	}, playwright.LocatorSelectOptionOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (l *playwrightLocator) Evaluate(ctx context.Context, script string, arg any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := l.locator.Evaluate(script, arg)
	if err != nil {
		return nil, fmt.Errorf("locator evaluate failed: %w", err)
	}
	return json.Marshal(result)
}

func (l *playwrightLocator) TextContent(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return l.locator.TextContent()
}

func (l *playwrightLocator) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.locator.IsVisible()
}

func (l *playwrightLocator) ScrollIntoView(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.locator.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}
