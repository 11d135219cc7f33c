package moods

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"discovery-backend/internal/llm"
	"discovery-backend/internal/shared/telemetry"
)

// NoteUnavailable is attached when no generative capability is configured.
const NoteUnavailable = "degraded: no generative capability configured"

var firstInt = regexp.MustCompile(`-?\d+`)

// Classification is the outcome of a single classify call. Category is always
// a member of the table.
type Classification struct {
	Category Category
	// Index is the 1-based position chosen by the model, 0 when none was usable.
	Index    int
	Raw      string
	Degraded bool
	Note     string
	Err      error
}

// Classifier maps free text to one mood category.
type Classifier struct {
	Table   *Table
	LLM     llm.Generator
	Timeout time.Duration
}

// NewClassifier builds a classifier over table. A nil table selects Default().
func NewClassifier(table *Table, gen llm.Generator, timeout time.Duration) *Classifier {
	if table == nil {
		table = Default()
	}
	return &Classifier{Table: table, LLM: gen, Timeout: timeout}
}

// Classify never fails; problems surface as the Unclear category with diagnostics.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	table := c.Table
	if table == nil {
		table = Default()
	}
	unclear := table.Unclear()

	if !llm.Available(c.LLM) {
		return Classification{Category: unclear, Degraded: true, Note: NoteUnavailable}
	}

	raw, err := llm.Call(ctx, c.LLM, BuildPrompt(table, text), c.Timeout, "classify")
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return Classification{Category: unclear, Degraded: true, Note: NoteUnavailable, Err: err}
		}
		telemetry.Warn("moods.classify.failed", map[string]any{"error": err.Error()})
		return Classification{Category: unclear, Degraded: true, Note: "classification unavailable", Err: err}
	}

	idx, ok := ParseIndex(raw)
	if !ok {
		return Classification{Category: unclear, Raw: raw, Note: "no category number in response"}
	}
	cat, ok := table.At(idx)
	if !ok {
		return Classification{Category: unclear, Raw: raw, Note: fmt.Sprintf("category %d out of range", idx)}
	}
	return Classification{Category: cat, Index: idx, Raw: raw}
}

// BuildPrompt renders the numbered category list.
func BuildPrompt(table *Table, text string) string {
	var sb strings.Builder
	sb.WriteString("You classify the mood or intent behind a short message from someone looking for a drink or snack nearby.\n")
	sb.WriteString("Choose exactly one category from this list:\n")
	for i, name := range table.Names() {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	fmt.Fprintf(&sb, "If the message is empty, nonsense, or carries no discernible mood, choose %s.\n", table.Unclear().Name)
	sb.WriteString("Reply with the category number only.\n\n")
	fmt.Fprintf(&sb, "Message: %q\n", strings.TrimSpace(text))
	return sb.String()
}

// ParseIndex returns the first integer anywhere in raw.
func ParseIndex(raw string) (int, bool) {
	m := firstInt.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
