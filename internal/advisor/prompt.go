package advisor

import (
	"fmt"
	"strings"

	"github.com/pairscout/engine/internal/domain"
)

// defaultMarketsLimit caps how many markets one prompt carries.
const defaultMarketsLimit = 100

const systemInstructions = `You are an expert Market Logic Analyzer for an arbitrage trading bot.
Your goal is to identify "Subset Markets" where the resolution of one market (Market A) strictly implies the resolution of another market (Market B).

**The Logical Rule (A -> B):**
If Market A resolves to "YES", then Market B **MUST** logically also resolve to "YES".
If this condition is met, we call this a "Risk-Free Logic Chain."

**Criteria for Implication:**
1. **Numerical Inclusion:** If A is "BTC > $100k" and B is "BTC > $90k", then A -> B.
2. **Categorical Inclusion:** If A is "Taylor Swift wins Grammy" and B is "Female Artist wins Grammy", then A -> B.
3. **Temporal Inclusion:** If A is "Event happens by Tuesday" and B is "Event happens by Friday", then A -> B.

**Constraint:**
- Ignore all prices and odds. Focus ONLY on the definitions/text.
- Ignore correlation. "Oil prices up" often means "Gas prices up", but it is not a *logical guarantee*. Mark these as NO.`

const fewShotExamples = `Here are examples of how you should analyze pairs:

---
**Example 1:**
Market A: "Bitcoin to hit $80k by Dec 31"
Market B: "Bitcoin to hit $75k by Dec 31"
**Analysis:** If BTC hits $80k, it must have passed $75k. The date is the same.
**Output:** MATCH (A -> B)

---
**Example 2:**
Market A: "Republicans win US Presidency"
Market B: "Donald Trump wins US Presidency"
**Analysis:** Trump is a Republican, but a different Republican could theoretically win. Trump winning implies Republicans win (B -> A), but Republicans winning does NOT imply Trump wins.
**Output:** NO MATCH (Direction wrong)

---
**Example 3:**
Market A: "SpaceX Starship launches in Q1"
Market B: "SpaceX Starship launches in 2024"
**Analysis:** Q1 is a subset of 2024. If it launches in Q1, it effectively launches in 2024.
**Output:** MATCH (A -> B)

---
**Example 4:**
Market A: "Ethereum hits $3000"
Market B: "Solana hits $200"
**Analysis:** These are correlated assets, but one happening does not force the other to happen by definition.
**Output:** NO MATCH`

// buildPrompt renders the user prompt for one keyword group. Each market is
// tagged with its index in the input slice so replies can be mapped straight
// back to positions.
func buildPrompt(markets []domain.Market, limit int) string {
	if limit <= 0 || limit > defaultMarketsLimit {
		limit = defaultMarketsLimit
	}

	var list strings.Builder
	for i, m := range markets {
		if i >= limit {
			break
		}
		fmt.Fprintf(&list, "ID %d: %s (Description: %s)\n", i, m.Title, m.Description)
	}

	return fmt.Sprintf(`%s

---
**YOUR TASK:**
Analyze the following list of markets. Identify ALL pairs where Market A -> Market B.
Return the output as a JSON list of pairs: {"trigger_market_id": "A", "implied_market_id": "B", "reasoning": "..."}

**MARKET LIST:**
%s`, fewShotExamples, list.String())
}
