package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/newsdesk/core"
)

var (
	// ErrNoJSONObject is returned when a response contains no {...} object.
	ErrNoJSONObject = errors.New("no JSON object in response")

	// ErrMalformedField is returned when a known key holds an unusable value.
	ErrMalformedField = errors.New("malformed field")
)

// ParseAnalysis decodes a model response into an Analysis.
//
// Both the flat shape {"tone": ..., "keywords": [...]} and the nested shape
// {"tone": {"tone": ..., "sentiment_score": ...}, "extracted": {...}} are
// accepted. Missing keys leave their zero value; lists are never nil.
func ParseAnalysis(response string) (*core.Analysis, error) {
	body, err := cutObject(response)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		repaired := repairJSON(body)
		if err2 := json.Unmarshal([]byte(repaired), &fields); err2 != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
	}

	analysis := core.EmptyAnalysis()

	if raw, ok := fields["tone"]; ok {
		if err := decodeTone(raw, &analysis.Tone); err != nil {
			return nil, err
		}
	}
	if raw, ok := fields["sentiment_score"]; ok {
		score, err := decodeScore(raw)
		if err != nil {
			return nil, err
		}
		analysis.Tone.SentimentScore = score
	}

	lists := fields
	if raw, ok := fields["extracted"]; ok && !isNull(raw) {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("%w: extracted: %w", ErrMalformedField, err)
		}
		lists = nested
	}

	targets := []struct {
		key string
		dst *[]string
	}{
		{"keywords", &analysis.Extracted.Keywords},
		{"topics", &analysis.Extracted.Topics},
		{"people", &analysis.Extracted.People},
		{"organizations", &analysis.Extracted.Organizations},
		{"locations", &analysis.Extracted.Locations},
	}
	for _, t := range targets {
		raw, ok := lists[t.key]
		if !ok {
			continue
		}
		values, err := decodeList(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedField, t.key, err)
		}
		*t.dst = values
	}

	return analysis, nil
}

// cutObject strips markdown fences and returns the outermost {...} span.
func cutObject(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return s[start : end+1], nil
}

func decodeTone(raw json.RawMessage, tone *core.Tone) error {
	if isNull(raw) {
		return nil
	}

	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		tone.Tone = strings.TrimSpace(label)
		return nil
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return fmt.Errorf("%w: tone: %w", ErrMalformedField, err)
	}
	if inner, ok := nested["tone"]; ok && !isNull(inner) {
		if err := json.Unmarshal(inner, &label); err != nil {
			return fmt.Errorf("%w: tone.tone: %w", ErrMalformedField, err)
		}
		tone.Tone = strings.TrimSpace(label)
	}
	if inner, ok := nested["sentiment_score"]; ok {
		score, err := decodeScore(inner)
		if err != nil {
			return err
		}
		tone.SentimentScore = score
	}
	return nil
}

func decodeScore(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, nil
	}

	var score float64
	if err := json.Unmarshal(raw, &score); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%w: sentiment_score: %w", ErrMalformedField, err)
		}
		score, err = strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: sentiment_score: %w", ErrMalformedField, err)
		}
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: sentiment_score: %w", ErrMalformedField, core.ErrInvalidSentiment)
	}
	return score, nil
}

func decodeList(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			case float64:
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			case map[string]any:
				// {"name": "..."} entries show up with some smaller models
				if name, ok := v["name"].(string); ok && strings.TrimSpace(name) != "" {
					out = append(out, strings.TrimSpace(name))
				}
			}
		}
		return out, nil
	}

	var csv string
	if err := json.Unmarshal(raw, &csv); err != nil {
		return nil, err
	}
	out := []string{}
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
