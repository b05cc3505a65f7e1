package browser

import (
	"fmt"
	"strings"
)

// fakeDriver serves canned pages and follows click links by selector.
type fakeDriver struct {
	pages   map[string]string
	links   map[string]string
	filled  map[string]string
	history []string
	closed  bool
	evalOut interface{}
}

func newFakeDriver(pages map[string]string, links map[string]string) *fakeDriver {
	return &fakeDriver{pages: pages, links: links, filled: map[string]string{}, history: []string{"about:blank"}}
}

func (d *fakeDriver) current() string { return d.history[len(d.history)-1] }

func (d *fakeDriver) Goto(url, waitUntil string, timeout float64) error {
	if _, ok := d.pages[url]; !ok {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	d.history = append(d.history, url)
	return nil
}

func (d *fakeDriver) GoBack() error {
	if len(d.history) > 1 {
		d.history = d.history[:len(d.history)-1]
	}
	return nil
}

func (d *fakeDriver) Click(selector string, timeout float64) error {
	target, ok := d.links[selector]
	if !ok {
		return fmt.Errorf("timeout %.0fms exceeded waiting for %s", timeout, selector)
	}
	if target != "" {
		d.history = append(d.history, target)
	}
	return nil
}

func (d *fakeDriver) Fill(selector, value string, timeout float64) error {
	d.filled[selector] = value
	return nil
}

func (d *fakeDriver) WaitFor(selector, state string, timeout float64) error {
	if !strings.Contains(d.pages[d.current()], selector) {
		return fmt.Errorf("timeout waiting for %s to be %s", selector, state)
	}
	return nil
}

func (d *fakeDriver) TextContent(selector string) (string, error) {
	s, err := structureHTML(d.pages[d.current()])
	if err != nil {
		return "", err
	}
	return s.Body, nil
}

func (d *fakeDriver) Content() (string, error) { return d.pages[d.current()], nil }

func (d *fakeDriver) Title() (string, error) {
	s, err := structureHTML(d.pages[d.current()])
	if err != nil {
		return "", err
	}
	return s.Title, nil
}

func (d *fakeDriver) URL() string { return d.current() }

func (d *fakeDriver) Evaluate(expression string) (interface{}, error) {
	if expression == "throw" {
		return nil, fmt.Errorf("Error: boom")
	}
	return d.evalOut, nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}
