package browser

// Registry tracks which tab of a browser context is current. Tabs are owned
// by the driver; the registry holds the context reference and a single
// current-index pointer, mutated only by the lifecycle tracker.
type Registry struct {
	tabs    TabContext
	current int
}

// NewRegistry creates a registry over a driver tab context. The first tab is
// current initially.
func NewRegistry(tabs TabContext) *Registry {
	return &Registry{tabs: tabs}
}

// PageCount returns the number of open tabs.
func (r *Registry) PageCount() int {
	return len(r.tabs.Pages())
}

// CurrentIndex returns the index of the current tab.
func (r *Registry) CurrentIndex() int {
	return r.current
}

// CurrentPage returns the current tab, or nil when no tabs are open. If the
// current index points past the end (the driver closed tabs underneath us),
// it falls back to the last open tab.
func (r *Registry) CurrentPage() Page {
	pages := r.tabs.Pages()
	if len(pages) == 0 {
		return nil
	}
	if r.current >= len(pages) {
		r.current = len(pages) - 1
	}
	return pages[r.current]
}

// CurrentURL returns the URL of the current tab, or "" when none is open.
func (r *Registry) CurrentURL() string {
	page := r.CurrentPage()
	if page == nil {
		return ""
	}
	return page.URL()
}

// TabInfo is a summary of one open tab for prompt rendering.
type TabInfo struct {
	Index   int
	URL     string
	Title   string
	Current bool
}

// Tabs summarizes the open tabs in creation order. Title failures are
// tolerated; the tab is listed with an empty title.
func (r *Registry) Tabs() []TabInfo {
	pages := r.tabs.Pages()
	infos := make([]TabInfo, 0, len(pages))
	for i, p := range pages {
		title, _ := p.Title()
		infos = append(infos, TabInfo{
			Index:   i,
			URL:     p.URL(),
			Title:   title,
			Current: i == r.current,
		})
	}
	return infos
}

// promote switches the current pointer to the given tab index.
func (r *Registry) promote(index int) {
	r.current = index
}
