package intake

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"finguard/internal/domain"
)

// DecodeBatch reads invoice records from a JSON array, an object with an
// "invoices" array, or JSON Lines. Records are returned undecoded beyond
// generic JSON so intake can report on malformed ones individually.
func DecodeBatch(data []byte) ([]any, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")))
	if len(data) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	var records []any
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding invoice array: %w", err)
		}
	case '{':
		var wrapped struct {
			Invoices []any `json:"invoices"`
		}
		if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Invoices != nil {
			records = wrapped.Invoices
			break
		}
		var err error
		if records, err = decodeLines(data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("batch must be a JSON array, an object with \"invoices\", or JSON Lines")
	}

	if len(records) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	return records, nil
}

func decodeLines(data []byte) ([]any, error) {
	var records []any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec any
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("decoding line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}
	return records, nil
}

// Select keeps records whose string field key equals value. An empty value
// keeps everything.
func Select(records []any, key, value string) []any {
	if value == "" {
		return records
	}
	var out []any
	for _, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m[key].(string); ok && strings.EqualFold(s, value) {
			out = append(out, r)
		}
	}
	return out
}
