// Token estimation utilities for usage reporting.
package llm

// EstimateTokens provides a heuristic-based token count estimate for text.
// Uses the industry standard approximation of ~4 characters per token.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4 // Round up to be conservative
}
