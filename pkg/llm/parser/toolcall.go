package parser

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

const (
	maxXMLSize       = 10 * 1024 * 1024 // 10MB limit for XML tool calls
	argumentsTagName = "arguments"
)

var toolRegex = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

// ampersandEntityRegex matches ampersands that are already part of XML entities
// to avoid double-escaping them. Matches: &amp; &lt; &gt; &quot; &apos; &#123; &#xAB;
var ampersandEntityRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)

// xmlToolCall is the shape of an XML tool invocation:
//
//	<tool>
//	<tool_name>save_page</tool_name>
//	<arguments>
//	  <url>https://example.com/login</url>
//	  <title>Login</title>
//	</arguments>
//	</tool>
type xmlToolCall struct {
	XMLName   xml.Name `xml:"tool"`
	ToolName  string   `xml:"tool_name"`
	Arguments struct {
		InnerXML []byte `xml:",innerxml"`
	} `xml:"arguments"`
}

// HasToolCall checks if the text contains an XML tool call.
func HasToolCall(text string) bool {
	return toolRegex.MatchString(text)
}

// ParseToolCalls extracts every XML tool call from text, converting each
// argument block into a JSON object. It returns the calls and the text with
// the tool blocks removed. Call ids are derived from idPrefix and position.
func ParseToolCalls(text, idPrefix string) ([]types.ToolCall, string, error) {
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	blocks := toolRegex.FindAllString(text, -1)
	if len(blocks) == 0 {
		return nil, text, nil
	}

	calls := make([]types.ToolCall, 0, len(blocks))
	for i, block := range blocks {
		var tc xmlToolCall
		if err := unmarshalXMLWithFallback([]byte(strings.TrimSpace(block)), &tc); err != nil {
			snippet := block
			if len(snippet) > 200 {
				snippet = snippet[:200] + "..."
			}
			return nil, text, fmt.Errorf("failed to unmarshal tool call XML: %w\nXML snippet: %s", err, snippet)
		}
		if strings.TrimSpace(tc.ToolName) == "" {
			return nil, text, fmt.Errorf("tool_name is required in tool call")
		}

		argsXML := "<arguments>" + string(tc.Arguments.InnerXML) + "</arguments>"
		args, err := xmlToMap([]byte(argsXML))
		if err != nil {
			args, err = xmlToMap(escapeUnescapedAmpersands([]byte(argsXML)))
			if err != nil {
				return nil, text, fmt.Errorf("tool %s: %w", tc.ToolName, err)
			}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, text, fmt.Errorf("tool %s: failed to encode arguments: %w", tc.ToolName, err)
		}
		calls = append(calls, types.ToolCall{
			ID:        fmt.Sprintf("%s_%d", idPrefix, i),
			Name:      strings.TrimSpace(tc.ToolName),
			Arguments: raw,
		})
	}

	remaining := strings.TrimSpace(toolRegex.ReplaceAllString(text, ""))
	return calls, remaining, nil
}

// unmarshalXMLWithFallback retries with bare ampersands escaped when the
// first parse fails.
func unmarshalXMLWithFallback(data []byte, v interface{}) error {
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands replaces bare & with &amp; while preserving
// existing entities (&amp;, &lt;, &gt;, &quot;, &apos;, &#..;)
func escapeUnescapedAmpersands(data []byte) []byte {
	text := string(data)

	entityPositions := make(map[int]bool)
	for _, match := range ampersandEntityRegex.FindAllStringIndex(text, -1) {
		entityPositions[match[0]] = true
	}

	var result strings.Builder
	result.Grow(len(text) + 20)
	for i := 0; i < len(text); i++ {
		if text[i] == '&' && !entityPositions[i] {
			result.WriteString("&amp;")
		} else {
			result.WriteByte(text[i])
		}
	}
	return []byte(result.String())
}

// xmlToMap converts the direct children of an <arguments> element into a map.
// Values that are JSON booleans, arrays or objects are decoded; everything
// else stays a string.
func xmlToMap(data []byte) (map[string]interface{}, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	result := make(map[string]interface{})

	var currentPath []string
	var currentText strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			currentPath = append(currentPath, t.Name.Local)
			currentText.Reset()

		case xml.EndElement:
			if len(currentPath) == 0 {
				continue
			}
			elementName := currentPath[len(currentPath)-1]
			currentPath = currentPath[:len(currentPath)-1]

			if len(currentPath) == 1 && currentPath[0] == argumentsTagName {
				if text := strings.TrimSpace(currentText.String()); text != "" {
					result[elementName] = coerceValue(text)
				}
			}
			currentText.Reset()

		case xml.CharData:
			currentText.Write(t)
		}
	}

	return result, nil
}

func coerceValue(text string) interface{} {
	switch text {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{") {
		var v interface{}
		if err := json.Unmarshal([]byte(text), &v); err == nil {
			return v
		}
	}
	return text
}
