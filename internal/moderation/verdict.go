package moderation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the parsed classification of one post
type Verdict struct {
	DangerousImage float64
	DangerousText  float64

	// Raw holds every field the classifier returned, scores included
	Raw map[string]interface{}
}

// Unsafe reports whether either score is strictly above threshold
func (v *Verdict) Unsafe(threshold float64) bool {
	return v.DangerousImage > threshold || v.DangerousText > threshold
}

// ParseVerdict decodes the classifier's JSON reply. Markdown code fences
// around the object are tolerated.
func ParseVerdict(content string) (*Verdict, error) {
	body := stripFence(content)

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedVerdict)
	}

	image, err := score(raw, "dangerous_image")
	if err != nil {
		return nil, err
	}
	text, err := score(raw, "dangerous_text")
	if err != nil {
		return nil, err
	}

	return &Verdict{DangerousImage: image, DangerousText: text, Raw: raw}, nil
}

func score(raw map[string]interface{}, key string) (float64, error) {
	v, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedVerdict, key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrMalformedVerdict, key)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%w: %s=%v out of range", ErrMalformedVerdict, key, f)
	}
	return f, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// BuildContent renders the user message sent to the classifier
func BuildContent(caption string, imageURLs []string) string {
	return "<text>" + caption + "</text><image>" + strings.Join(imageURLs, " | ") + "</image>"
}
