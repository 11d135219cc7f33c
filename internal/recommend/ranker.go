package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discovery-backend/internal/llm"
)

// Ranker asks the generative capability to choose items from a RankingContext.
type Ranker struct {
	LLM     llm.Generator
	Timeout time.Duration
}

// Rank returns validated picks or an error; it never returns a partial ranking.
func (r *Ranker) Rank(ctx context.Context, userText string, rc RankingContext, k int) (Ranking, error) {
	if r == nil || !llm.Available(r.LLM) {
		return Ranking{}, llm.ErrNotConfigured
	}
	if rc.Len() == 0 {
		return Ranking{}, ErrNoCandidates
	}
	if k <= 0 {
		k = MaxEntries
	}

	raw, err := llm.Call(ctx, r.LLM, buildRankPrompt(userText, rc, k), r.Timeout, "rank")
	if err != nil {
		return Ranking{}, fmt.Errorf("rank: %w", err)
	}
	ranking, err := parseRanking(raw)
	if err != nil {
		return Ranking{}, err
	}
	ranking.Picks = validatePicks(ranking.Picks, rc)
	if len(ranking.Picks) == 0 {
		return Ranking{}, ErrNoValidPicks
	}
	return ranking, nil
}

func buildRankPrompt(userText string, rc RankingContext, k int) string {
	var sb strings.Builder
	sb.WriteString("You are the barista assistant of a local discovery app. Recommend items from the nearby vendors listed below.\n\n")
	fmt.Fprintf(&sb, "User message: %q\n\n", strings.TrimSpace(userText))
	sb.WriteString("Nearby vendors and their items, nearest first:\n")
	sb.WriteString(rc.Text)
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("1. Decide whether the message asks for a specific product (for example \"latte\" or \"cheesecake\") or describes a mood, craving or occasion.\n")
	sb.WriteString("2. For a specific product, pick items matching it and spread the picks across different vendors so the user can compare places.\n")
	sb.WriteString("3. For a mood or occasion, pick the best fitting items first and prefer different vendors when the fit is similar.\n")
	fmt.Fprintf(&sb, "4. Pick at most %d items. Use only ids shown as [ID: n] above and never invent ids.\n", k)
	sb.WriteString("5. Give a short reason per pick, an overall category label for the request and a one sentence rationale.\n\n")
	sb.WriteString("Respond with a single JSON object and nothing else:\n")
	sb.WriteString(`{"emotion_category": "<label>", "thought_process": "<one sentence>", "recommendations": [{"id": <item id>, "reason": "<short reason>"}]}`)
	sb.WriteString("\n")
	return sb.String()
}
