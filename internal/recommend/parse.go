package recommend

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Pick is one validated ranker choice.
type Pick struct {
	ItemID int64
	Reason string
}

// Ranking is the parsed and validated ranker response.
type Ranking struct {
	Category  string
	Rationale string
	Picks     []Pick
}

type rawRanking struct {
	EmotionCategory string            `json:"emotion_category"`
	Category        string            `json:"category"`
	ThoughtProcess  string            `json:"thought_process"`
	Rationale       string            `json:"rationale"`
	Recommendations []json.RawMessage `json:"recommendations"`
}

type rawPick struct {
	ID            flexID `json:"id"`
	ItemID        flexID `json:"item_id"`
	Reason        string `json:"reason"`
	Justification string `json:"justification"`
}

// flexID accepts 12, 12.0 and "12". Anything else decodes to 0, which is never
// a valid item id.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = 0
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexID(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int64(v)) {
		*f = flexID(int64(v))
	}
	return nil
}

// parseRanking decodes raw model output. It does not consult the context.
func parseRanking(raw string) (Ranking, error) {
	payload, err := extractJSONObject(stripFences(raw))
	if err != nil {
		return Ranking{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	var doc rawRanking
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return Ranking{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	out := Ranking{
		Category:  firstNonEmpty(doc.EmotionCategory, doc.Category),
		Rationale: firstNonEmpty(doc.ThoughtProcess, doc.Rationale),
	}
	for _, rec := range doc.Recommendations {
		rec = bytes.TrimSpace(rec)
		if len(rec) == 0 {
			continue
		}
		if rec[0] != '{' {
			var id flexID
			_ = id.UnmarshalJSON(rec)
			out.Picks = append(out.Picks, Pick{ItemID: int64(id)})
			continue
		}
		var rp rawPick
		if err := json.Unmarshal(rec, &rp); err != nil {
			continue
		}
		id := int64(rp.ID)
		if id == 0 {
			id = int64(rp.ItemID)
		}
		out.Picks = append(out.Picks, Pick{ItemID: id, Reason: firstNonEmpty(rp.Reason, rp.Justification)})
	}
	return out, nil
}

// validatePicks drops ids outside the context and repeated ids, keeping order.
func validatePicks(picks []Pick, rc RankingContext) []Pick {
	seen := make(map[int64]struct{}, len(picks))
	out := make([]Pick, 0, len(picks))
	for _, p := range picks {
		if _, ok := rc.Items[p.ItemID]; !ok {
			continue
		}
		if _, dup := seen[p.ItemID]; dup {
			continue
		}
		seen[p.ItemID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func extractJSONObject(raw string) (string, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return "", fmt.Errorf("empty llm response")
	}
	if strings.HasPrefix(payload, "{") && json.Valid([]byte(payload)) {
		return payload, nil
	}

	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no json object found")
	}

	candidate := payload[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("invalid json object")
	}
	return candidate, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
