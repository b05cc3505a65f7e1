package browser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// CleanedHTML is a page snapshot reduced to its semantic structure.
type CleanedHTML struct {
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	HTML        string    `json:"html"`
	Truncated   bool      `json:"truncated,omitempty"`
	Elements    []Element `json:"elements"`
}

// Element is an interactive element found in a snapshot, with a selector the
// agent can use to act on it or label it.
type Element struct {
	Tag      string `json:"tag"`
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector"`
}

// maxElementText bounds the text recorded per element.
const maxElementText = 80

var (
	skippedElements = set("script", "style", "noscript", "iframe", "embed", "object", "svg", "template")

	blockElements = set("div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "dialog")

	voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta",
		"param", "source", "track", "wbr")

	globalAttributes = set("id", "class", "role", "title", "hidden", "disabled", "data-testid", "data-test")

	interactiveTags  = set("a", "button", "input", "select", "textarea", "summary")
	interactiveRoles = set("button", "link", "tab", "menuitem", "checkbox", "radio", "switch", "option", "combobox")

	cssIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// Clean parses rawHTML and returns its cleaned markup limited to maxLength
// characters, plus the page's interactive elements.
func Clean(rawHTML string, maxLength int) (*CleanedHTML, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &cleaner{maxLength: maxLength}
	result := &CleanedHTML{
		Title:       strings.TrimSpace(textOf(findFirst(doc, "title"))),
		Description: metaDescription(doc),
		Elements:    []Element{},
	}

	body := findFirst(doc, "body")
	if body == nil {
		body = doc
	}
	result.Truncated = c.node(body, 0)
	result.HTML = strings.TrimSpace(c.b.String())

	collectElements(body, &result.Elements)
	return result, nil
}

// CleanMarkup returns only the cleaned markup, sized for storing with a UI
// state.
func CleanMarkup(rawHTML string) (string, error) {
	cleaned, err := Clean(rawHTML, DefaultSnapshotLength)
	if err != nil {
		return "", err
	}
	return cleaned.HTML, nil
}

type cleaner struct {
	b         strings.Builder
	length    int
	maxLength int
}

// node writes n and reports whether output was truncated.
func (c *cleaner) node(n *html.Node, depth int) bool {
	if c.length >= c.maxLength {
		return true
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return false
	case html.TextNode:
		return c.text(n.Data)
	case html.ElementNode:
		if skippedElements[strings.ToLower(n.Data)] {
			return false
		}
		return c.element(n, depth)
	}
	return c.children(n, depth)
}

func (c *cleaner) text(data string) bool {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return false
	}
	if c.length+len(text) > c.maxLength {
		cut := c.maxLength - c.length
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
		c.b.WriteString(html.EscapeString(text))
		c.length = c.maxLength
		return true
	}
	c.b.WriteString(html.EscapeString(text))
	c.length += len(text)
	return false
}

func (c *cleaner) element(n *html.Node, depth int) bool {
	tag := strings.ToLower(n.Data)
	block := blockElements[tag]

	if block && depth > 0 {
		c.b.WriteString("\n")
		c.b.WriteString(strings.Repeat("  ", depth))
	}

	start := c.b.Len()
	c.b.WriteString("<" + tag)
	for _, attr := range n.Attr {
		if keepAttribute(tag, attr.Key) {
			fmt.Fprintf(&c.b, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	c.b.WriteString(">")
	c.length += c.b.Len() - start

	truncated := c.children(n, depth+1)

	if !voidElements[tag] {
		if block {
			c.b.WriteString("\n")
			c.b.WriteString(strings.Repeat("  ", depth))
		}
		c.b.WriteString("</" + tag + ">")
		c.length += len(tag) + 3
	}
	return truncated
}

func (c *cleaner) children(n *html.Node, depth int) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c.node(child, depth) {
			return true
		}
	}
	return false
}

// keepAttribute keeps attributes that identify or target an element.
func keepAttribute(tag, key string) bool {
	key = strings.ToLower(key)
	if globalAttributes[key] || strings.HasPrefix(key, "aria-") {
		return true
	}
	switch tag {
	case "a":
		return key == "href"
	case "img":
		return key == "alt"
	case "input", "textarea", "select":
		return key == "name" || key == "type" || key == "placeholder" || key == "value" || key == "checked"
	case "button":
		return key == "type" || key == "name"
	case "form":
		return key == "action" || key == "method"
	case "label":
		return key == "for"
	}
	return false
}

func collectElements(n *html.Node, out *[]Element) {
	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] {
			return
		}
		if interactiveTags[tag] || interactiveRoles[attr(n, "role")] {
			if attr(n, "type") != "hidden" {
				text := strings.Join(strings.Fields(textOf(n)), " ")
				if text == "" {
					text = firstNonEmpty(attr(n, "aria-label"), attr(n, "placeholder"), attr(n, "value"), attr(n, "alt"))
				}
				if len(text) > maxElementText {
					text = text[:maxElementText] + "..."
				}
				*out = append(*out, Element{
					Tag:      tag,
					Type:     attr(n, "type"),
					Text:     text,
					Selector: selectorFor(n, tag, text),
				})
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectElements(child, out)
	}
}

// selectorFor picks the most stable selector available for an element.
func selectorFor(n *html.Node, tag, text string) string {
	if id := attr(n, "id"); id != "" {
		if cssIdent.MatchString(id) {
			return "#" + id
		}
		return fmt.Sprintf("[id=%q]", id)
	}
	for _, key := range []string{"data-testid", "data-test"} {
		if v := attr(n, key); v != "" {
			return fmt.Sprintf("[%s=%q]", key, v)
		}
	}
	if v := attr(n, "name"); v != "" {
		return fmt.Sprintf("%s[name=%q]", tag, v)
	}
	if v := attr(n, "aria-label"); v != "" {
		return fmt.Sprintf("%s[aria-label=%q]", tag, v)
	}
	if text != "" && !strings.HasSuffix(text, "...") {
		return fmt.Sprintf("%s:has-text(%q)", tag, text)
	}
	if v := attr(n, "href"); tag == "a" && v != "" {
		return fmt.Sprintf("a[href=%q]", v)
	}
	return tag
}

// structureHTML extracts title, headings, links and body text.
func structureHTML(rawHTML string) (*StructuredContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	out := &StructuredContent{
		Title:    strings.TrimSpace(textOf(findFirst(doc, "title"))),
		Headings: []string{},
		Links:    []Link{},
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skippedElements[tag] {
				return
			}
			switch tag {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if text := strings.Join(strings.Fields(textOf(n)), " "); text != "" {
					out.Headings = append(out.Headings, text)
				}
			case "a":
				if href := attr(n, "href"); href != "" {
					out.Links = append(out.Links, Link{Text: strings.Join(strings.Fields(textOf(n)), " "), Href: href})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if body := findFirst(doc, "body"); body != nil {
		out.Body = strings.Join(strings.Fields(textOf(body)), " ")
	}
	return out, nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// textOf concatenates the text below n, skipping scripts and styles.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
			return
		}
		if n.Type == html.ElementNode && skippedElements[strings.ToLower(n.Data)] {
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func metaDescription(doc *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" && strings.EqualFold(attr(n, "name"), "description") {
			found = strings.TrimSpace(attr(n, "content"))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
