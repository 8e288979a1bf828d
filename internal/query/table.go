package query

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mattn/go-runewidth"
)

const noRowsPlaceholder = "(no rows)"

// FormatResponse renders a response for display: compact JSON when
// jsonOutput is set, otherwise a table, falling back to pretty-printed JSON
// when the response has no tabular shape.
func FormatResponse(resp *Response, jsonOutput bool) (string, error) {
	if jsonOutput {
		out, err := json.Marshal(resp)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if table, ok := RenderTable(resp); ok {
		return table, nil
	}
	compact, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, compact, "", "  "); err != nil {
		return "", err
	}
	return pretty.String(), nil
}

// RenderTable renders a response as a bordered fixed-width table. It returns
// ok=false when no headers can be derived and rows exist, in which case the
// caller should fall back to JSON. A headerless, rowless response renders a
// placeholder rather than failing.
func RenderTable(resp *Response) (string, bool) {
	headers := extractHeaders(resp.Schema)
	if len(headers) == 0 && len(resp.Data) > 0 {
		headers = resp.Data[0].Columns()
	}

	if len(headers) == 0 {
		if len(resp.Data) == 0 {
			return noRowsPlaceholder, true
		}
		return "", false
	}

	rows := make([][]string, 0, len(resp.Data))
	for _, row := range resp.Data {
		cells := make([]string, 0, len(headers))
		for _, header := range headers {
			raw, ok := row.Get(header)
			cells = append(cells, formatCell(raw, ok))
		}
		rows = append(rows, cells)
	}

	return buildTable(headers, rows), true
}

// extractHeaders pulls column names, in document order, out of the one
// schema shape the renderer understands: {"items":{"properties":{...}}}.
func extractHeaders(schema json.RawMessage) []string {
	if len(schema) == 0 {
		return nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(schema, &top); err != nil {
		return nil
	}
	items, ok := top["items"]
	if !ok {
		return nil
	}
	var itemsObj map[string]json.RawMessage
	if err := json.Unmarshal(items, &itemsObj); err != nil {
		return nil
	}
	props, ok := itemsObj["properties"]
	if !ok {
		return nil
	}
	return objectKeys(props)
}

// objectKeys returns the keys of a JSON object in document order, or nil if
// the value is not an object.
func objectKeys(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
		keys = append(keys, key)
	}
	return keys
}

// formatCell projects a cell value to display text: strings pass through
// unescaped, arrays/objects re-encode as compact JSON, other scalars keep
// their canonical wire text, and a missing field renders empty.
func formatCell(raw json.RawMessage, ok bool) string {
	if !ok {
		return ""
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed)
		}
		return s
	case '[', '{':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return string(trimmed)
		}
		return compact.String()
	default:
		return string(trimmed)
	}
}

func buildTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	separator := buildSeparator(widths)
	var out strings.Builder
	out.WriteString(separator)
	out.WriteByte('\n')
	out.WriteString(buildRow(headers, widths))
	out.WriteByte('\n')
	out.WriteString(separator)
	for _, row := range rows {
		out.WriteByte('\n')
		out.WriteString(buildRow(row, widths))
	}
	out.WriteByte('\n')
	out.WriteString(separator)
	return out.String()
}

func buildSeparator(widths []int) string {
	var line strings.Builder
	line.WriteByte('+')
	for _, width := range widths {
		line.WriteString(strings.Repeat("-", width+2))
		line.WriteByte('+')
	}
	return line.String()
}

func buildRow(cells []string, widths []int) string {
	var line strings.Builder
	line.WriteByte('|')
	for i, cell := range cells {
		line.WriteByte(' ')
		line.WriteString(padCell(cell, widths[i]))
		line.WriteByte(' ')
		line.WriteByte('|')
	}
	return line.String()
}

// padCell right-pads with spaces up to width, measured in display columns so
// multi-byte and wide glyphs don't skew the layout.
func padCell(cell string, width int) string {
	current := runewidth.StringWidth(cell)
	if current >= width {
		return cell
	}
	return cell + strings.Repeat(" ", width-current)
}
