package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Driver is the page-level surface the browser tools need. The playwright
// implementation drives a real Chromium page.
type Driver interface {
	Goto(url, waitUntil string, timeout float64) error
	GoBack() error
	Click(selector string, timeout float64) error
	Fill(selector, value string, timeout float64) error
	WaitFor(selector, state string, timeout float64) error
	TextContent(selector string) (string, error)
	Content() (string, error)
	Title() (string, error)
	URL() string
	Evaluate(expression string) (interface{}, error)
	Close() error
}

// playwrightDriver owns a browser, its context and one page.
type playwrightDriver struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (d *playwrightDriver) Goto(url, waitUntil string, timeout float64) error {
	opts := playwright.PageGotoOptions{}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}
	if timeout > 0 {
		opts.Timeout = &timeout
	}
	if _, err := d.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) GoBack() error {
	if _, err := d.page.GoBack(); err != nil {
		return fmt.Errorf("go back failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) Click(selector string, timeout float64) error {
	opts := playwright.PageClickOptions{}
	if timeout > 0 {
		opts.Timeout = &timeout
	}
	if err := d.page.Click(selector, opts); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) Fill(selector, value string, timeout float64) error {
	opts := playwright.PageFillOptions{}
	if timeout > 0 {
		opts.Timeout = &timeout
	}
	if err := d.page.Fill(selector, value, opts); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) WaitFor(selector, state string, timeout float64) error {
	opts := playwright.PageWaitForSelectorOptions{}
	if state != "" {
		s := playwright.WaitForSelectorState(state)
		opts.State = &s
	}
	if timeout > 0 {
		opts.Timeout = &timeout
	}
	if _, err := d.page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) TextContent(selector string) (string, error) {
	element, err := d.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	text, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, nil
}

func (d *playwrightDriver) Content() (string, error) {
	return d.page.Content()
}

func (d *playwrightDriver) Title() (string, error) {
	return d.page.Title()
}

func (d *playwrightDriver) URL() string {
	return d.page.URL()
}

func (d *playwrightDriver) Evaluate(expression string) (interface{}, error) {
	return d.page.Evaluate(expression)
}

// Close releases the page, context and browser, returning the first error.
func (d *playwrightDriver) Close() error {
	var first error
	for _, closeFn := range []func() error{
		func() error { return d.page.Close() },
		func() error { return d.context.Close() },
		func() error { return d.browser.Close() },
	} {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
