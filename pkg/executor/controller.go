// Package executor turns decoded model operations into driver calls. It
// owns the action vocabulary, the wire-format parser, and the dispatch
// logic that ties the snapshot index map, the selector resolver, and the
// page lifecycle tracker together.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/dom"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/selector"
)

// DefaultActionTimeout bounds each individual driver interaction.
const DefaultActionTimeout = 10 * time.Second

// maxWaitSeconds caps the wait action so a confused model cannot stall
// the loop indefinitely.
const maxWaitSeconds = 30.0

// Controller executes actions against the current tab of a session.
type Controller struct {
	registry *browser.Registry
	tracker  *browser.Tracker
	scope    *Scope
	timeout  time.Duration
	logger   *logging.Logger

	snapshot *dom.Snapshot
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the per-interaction driver timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithScope restricts which URLs the navigate action may load.
func WithScope(s *Scope) Option {
	return func(c *Controller) { c.scope = s }
}

// WithLogger directs controller diagnostics to the given logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController builds a controller over the session's registry and
// tracker. The snapshot is supplied separately via SetSnapshot and is
// invalidated whenever an action mutates page state.
func NewController(registry *browser.Registry, tracker *browser.Tracker, opts ...Option) *Controller {
	c := &Controller{
		registry: registry,
		tracker:  tracker,
		timeout:  DefaultActionTimeout,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSnapshot installs the snapshot element references resolve against.
func (c *Controller) SetSnapshot(s *dom.Snapshot) { c.snapshot = s }

// Snapshot returns the current snapshot, nil after a mutating action until
// the caller rebuilds it.
func (c *Controller) Snapshot() *dom.Snapshot { return c.snapshot }

// ExecuteRaw parses one wire-format operation and executes it.
func (c *Controller) ExecuteRaw(ctx context.Context, raw string) ActionResult {
	desc, err := ParseOperation(raw)
	if err != nil {
		return failure(CategoryParseError, err.Error())
	}
	return c.Execute(ctx, desc)
}

// Execute dispatches one decoded action. Failures are reported in the
// result, never panicked; the orchestrating loop stays alive across bad
// actions.
func (c *Controller) Execute(ctx context.Context, desc ActionDescriptor) ActionResult {
	c.logger.Debugf("executing %s target=%q content=%q", desc.Action, desc.Target, desc.Content)

	var res ActionResult
	switch desc.Action {
	case ActionClick:
		res = c.click(ctx, desc)
	case ActionInput:
		res = c.input(ctx, desc)
	case ActionSelect:
		res = c.selectOption(ctx, desc)
	case ActionGetDropdownOptions:
		res = c.dropdownOptions(ctx, desc)
	case ActionNavigate:
		res = c.navigate(ctx, desc)
	case ActionWait:
		res = c.wait(ctx, desc)
	case ActionScroll:
		res = c.scroll(ctx, desc)
	case ActionDone:
		res = ActionResult{Success: true, Done: true, Message: firstNonEmpty(desc.Content, "task complete")}
	default:
		res = failure(CategoryParseError, fmt.Sprintf("unknown action %q", desc.Action))
	}

	if !res.Success {
		c.logger.Warnf("%s failed (%s): %s", desc.Action, res.Category, res.Message)
	}
	return res
}

// ExecuteBatch runs a sequence of actions in order. Execution stops after
// the first done action or the first hard failure; a not-yet-actionable
// failure also stops the batch so the caller can adjust the page, but the
// caller may retry the same action afterwards.
func (c *Controller) ExecuteBatch(ctx context.Context, descs []ActionDescriptor) []ActionResult {
	results := make([]ActionResult, 0, len(descs))
	for _, desc := range descs {
		res := c.Execute(ctx, desc)
		results = append(results, res)
		if res.Done || !res.Success {
			break
		}
	}
	return results
}

// candidatesFor derives selector candidates for a target, failing fast
// when a numeric reference is not present in the current index map. The
// fast path never touches the driver.
func (c *Controller) candidatesFor(target string) ([]selector.Candidate, *ActionResult) {
	if _, err := strconv.Atoi(strings.TrimSpace(target)); err == nil {
		if c.snapshot == nil {
			res := failure(CategoryTargetNotFound, fmt.Sprintf("no snapshot loaded, element %s is unknown", target))
			return nil, &res
		}
	}
	cands, _ := selector.Candidates(c.snapshot, target)
	if len(cands) == 0 {
		res := failure(CategoryTargetNotFound,
			fmt.Sprintf("element %s is not in the current page snapshot: %v", target, ErrTargetNotFound))
		return nil, &res
	}
	return cands, nil
}

// indexedElement returns the snapshot node for a numeric target, or nil
// when the target is free text or a path.
func (c *Controller) indexedElement(target string) *dom.ElementNode {
	idx, err := strconv.Atoi(strings.TrimSpace(target))
	if err != nil || c.snapshot == nil {
		return nil
	}
	el, _ := c.snapshot.Element(idx)
	return el
}

func (c *Controller) currentPage() (browser.Page, *ActionResult) {
	page := c.registry.CurrentPage()
	if page == nil {
		res := failure(CategoryDriverError, "no open page")
		return nil, &res
	}
	return page, nil
}

func (c *Controller) click(ctx context.Context, desc ActionDescriptor) ActionResult {
	if desc.Target == "" {
		return failure(CategoryParseError, "click requires a target")
	}
	cands, fail := c.candidatesFor(desc.Target)
	if fail != nil {
		return *fail
	}
	page, fail := c.currentPage()
	if fail != nil {
		return *fail
	}

	oldCount := c.registry.PageCount()
	oldURL := c.registry.CurrentURL()

	match, err := selector.Resolve(ctx, page, desc.Target, cands, func(ctx context.Context, m selector.Match) error {
		return m.Locator.Click(ctx, c.timeout)
	})
	if err != nil {
		return classify(err)
	}

	changed, newURL := c.tracker.DetectAndSwitch(ctx, oldCount, oldURL)
	c.snapshot = nil

	msg := fmt.Sprintf("clicked %s", desc.Target)
	if match.Warning != "" {
		msg += " (" + match.Warning + ")"
	}
	if changed {
		msg += fmt.Sprintf(", page is now %s", newURL)
	}
	return ActionResult{Success: true, Message: msg, PageChanged: changed, NewPageURL: newURL}
}

func (c *Controller) input(ctx context.Context, desc ActionDescriptor) ActionResult {
	if desc.Target == "" {
		return failure(CategoryParseError, "input requires a target")
	}
	if el := c.indexedElement(desc.Target); el != nil {
		tag := strings.ToLower(el.TagName)
		if tag != "input" && tag != "textarea" {
			return failure(CategoryTargetNotFound,
				fmt.Sprintf("element %s is a <%s>, not an input or textarea", desc.Target, tag))
		}
	}
	cands, fail := c.candidatesFor(desc.Target)
	if fail != nil {
		return *fail
	}
	page, fail := c.currentPage()
	if fail != nil {
		return *fail
	}

	_, err := selector.Resolve(ctx, page, desc.Target, cands, func(ctx context.Context, m selector.Match) error {
		return m.Locator.Fill(ctx, desc.Content, c.timeout)
	})
	if err != nil {
		return classify(err)
	}

	c.snapshot = nil
	return ActionResult{Success: true, Message: fmt.Sprintf("typed %q into %s", desc.Content, desc.Target)}
}

// selectOption first tries the native select-by-label path, then falls
// back to treating the element as a custom widget: open it with a click
// and click the option text. An option that exists but is not visible yet
// is reported as not-yet-actionable so the caller can scroll and retry.
func (c *Controller) selectOption(ctx context.Context, desc ActionDescriptor) ActionResult {
	if desc.Target == "" || desc.Content == "" {
		return failure(CategoryParseError, "select requires a target and an option label")
	}
	cands, fail := c.candidatesFor(desc.Target)
	if fail != nil {
		return *fail
	}
	page, fail := c.currentPage()
	if fail != nil {
		return *fail
	}

	interact := func(ctx context.Context, m selector.Match) error {
		if err := m.Locator.SelectOption(ctx, desc.Content, c.timeout); err == nil {
			return nil
		}

		if err := m.Locator.Click(ctx, c.timeout); err != nil {
			return fmt.Errorf("opening dropdown: %w", err)
		}
		option := page.Locator(fmt.Sprintf("text=%q", desc.Content))
		count, err := option.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("option %q not found after opening %s", desc.Content, desc.Target)
		}
		first := option.First()
		visible, err := first.IsVisible(ctx)
		if err != nil {
			return err
		}
		if !visible {
			return &NotYetActionableError{
				Msg: fmt.Sprintf("option %q exists but is not visible yet, scroll the dropdown and retry", desc.Content),
			}
		}
		return first.Click(ctx, c.timeout)
	}

	if _, err := selector.Resolve(ctx, page, desc.Target, cands, interact); err != nil {
		return classify(err)
	}

	c.snapshot = nil
	return ActionResult{Success: true, Message: fmt.Sprintf("selected %q in %s", desc.Content, desc.Target)}
}

type optionInfo struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

const listOptionsScript = `(el) => Array.from(el.options).map(o => ({label: o.label, value: o.value, selected: o.selected}))`

func (c *Controller) dropdownOptions(ctx context.Context, desc ActionDescriptor) ActionResult {
	if desc.Target == "" {
		return failure(CategoryParseError, "get_dropdown_options requires a target")
	}
	if el := c.indexedElement(desc.Target); el != nil && strings.ToLower(el.TagName) != "select" {
		return ActionResult{
			Message: fmt.Sprintf("element %s is a <%s>, not a native select; click it to open the widget, then click the desired option",
				desc.Target, strings.ToLower(el.TagName)),
		}
	}
	cands, fail := c.candidatesFor(desc.Target)
	if fail != nil {
		return *fail
	}
	page, fail := c.currentPage()
	if fail != nil {
		return *fail
	}

	var options []optionInfo
	_, err := selector.Resolve(ctx, page, desc.Target, cands, func(ctx context.Context, m selector.Match) error {
		out, err := m.Locator.Evaluate(ctx, listOptionsScript, nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(out, &options)
	})
	if err != nil {
		return classify(err)
	}

	if len(options) == 0 {
		return success(fmt.Sprintf("%s has no options", desc.Target))
	}
	lines := make([]string, 0, len(options))
	for _, o := range options {
		line := o.Label
		if o.Selected {
			line += " (selected)"
		}
		lines = append(lines, line)
	}
	return success(fmt.Sprintf("options of %s: %s", desc.Target, strings.Join(lines, ", ")))
}

func (c *Controller) navigate(ctx context.Context, desc ActionDescriptor) ActionResult {
	target := firstNonEmpty(desc.Content, desc.Target)
	if target == "" {
		return failure(CategoryParseError, "navigate requires a URL")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	if !c.scope.Allows(target) {
		return ActionResult{
			Message: fmt.Sprintf("navigation to %s is outside the allowed scope, stay on the permitted sites", target),
		}
	}
	page, fail := c.currentPage()
	if fail != nil {
		return *fail
	}

	if err := page.Navigate(ctx, target); err != nil {
		return classify(err)
	}
	// Best effort: a slow page should not fail the navigation itself.
	_ = page.WaitForReady(ctx, c.timeout)

	c.snapshot = nil
	url := page.URL()
	return ActionResult{
		Success:     true,
		Message:     fmt.Sprintf("navigated to %s", url),
		PageChanged: true,
		NewPageURL:  url,
	}
}

func (c *Controller) wait(ctx context.Context, desc ActionDescriptor) ActionResult {
	seconds := 1.0
	if desc.Content != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(desc.Content), "s"), 64)
		if err != nil || parsed < 0 {
			return failure(CategoryParseError, fmt.Sprintf("invalid wait duration %q", desc.Content))
		}
		seconds = parsed
	}
	if seconds > maxWaitSeconds {
		seconds = maxWaitSeconds
	}

	select {
	case <-ctx.Done():
		return failure(CategoryTimeout, "wait interrupted: "+ctx.Err().Error())
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	}
	return success(fmt.Sprintf("waited %.1fs", seconds))
}

const (
	scrollPageScript    = `(f) => { window.scrollBy(0, window.innerHeight * f); }`
	scrollElementScript = `(el, f) => { el.scrollBy(0, el.clientHeight * f); }`
)

// scroll moves the page, or an element's own scroll container when a
// target is given. The content field is a direction and an optional
// viewport-height multiple: "down", "up 2", "0.5".
func (c *Controller) scroll(ctx context.Context, desc ActionDescriptor) ActionResult {
	factor, err := parseScrollAmount(desc.Content)
	if err != nil {
		return failure(CategoryParseError, err.Error())
	}
	page, fail := c.currentPage()
	if fail != nil {
		return *fail
	}

	if desc.Target != "" {
		cands, fail := c.candidatesFor(desc.Target)
		if fail != nil {
			return *fail
		}
		_, err := selector.Resolve(ctx, page, desc.Target, cands, func(ctx context.Context, m selector.Match) error {
			_, err := m.Locator.Evaluate(ctx, scrollElementScript, factor)
			return err
		})
		if err != nil {
			return classify(err)
		}
		return success(fmt.Sprintf("scrolled %s by %.1f of its height", desc.Target, factor))
	}

	if _, err := page.Evaluate(ctx, scrollPageScript, factor); err != nil {
		return classify(err)
	}
	return success(fmt.Sprintf("scrolled page by %.1f viewport heights", factor))
}

// parseScrollAmount accepts "", "down", "up", "down 2", "up 0.5", or a
// bare number. Positive scrolls down.
func parseScrollAmount(content string) (float64, error) {
	factor := 1.0
	sign := 1.0

	fields := strings.Fields(strings.ToLower(strings.TrimSpace(content)))
	for _, f := range fields {
		switch f {
		case "down":
			sign = 1.0
		case "up":
			sign = -1.0
		default:
			parsed, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid scroll amount %q", content)
			}
			factor = parsed
		}
	}
	return sign * factor, nil
}

func classify(err error) ActionResult {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return failure(CategoryTimeout, err.Error())
	case selector.IsSoftFailure(err):
		return failure(CategoryNotYetActionable, err.Error())
	case errors.Is(err, selector.ErrExhausted):
		return failure(CategoryResolutionExhausted, err.Error())
	default:
		return failure(CategoryDriverError, err.Error())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
