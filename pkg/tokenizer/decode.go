package tokenizer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/calvinalkan/lattice-tok/pkg/lattice"
)

// backEntry records how the best path reached a dp position: the position
// it came from and the token that was emitted to get there.
type backEntry struct {
	from     int
	tokenHex lattice.HexString
	tokenID  uint64
	cpLen    int
}

// Decode finds the maximum-log-score segmentation of text into known tokens
// and returns their IDs in order (spec §4.7's decode).
func (t *Tokenizer) Decode(ctx context.Context, text string) ([]uint64, error) {
	cps := toCodepoints(text)
	n := len(cps)

	if n == 0 {
		return nil, nil
	}

	dp := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		dp[i] = math.Inf(-1)
	}

	back := make([]*backEntry, n+1)

	for i := 0; i < n; i++ {
		if math.IsInf(dp[i], -1) {
			continue
		}

		candidates, err := t.candidatesAt(ctx, cps, i)
		if err != nil {
			return nil, fmt.Errorf("decode: candidates at %d: %w", i, err)
		}

		if len(candidates) == 0 {
			continue
		}

		prevHex, hasPrev := lattice.HexString(""), false
		if back[i] != nil {
			prevHex, hasPrev = back[i].tokenHex, true
		}

		transitions, totalWeight, err := t.refinedTransitions(ctx, prevHex, hasPrev)
		if err != nil {
			return nil, fmt.Errorf("decode: refined transitions at %d: %w", i, err)
		}

		for _, cand := range candidates {
			tok, err := t.store.GetTokenByBytes(ctx, cand)
			if err != nil {
				return nil, fmt.Errorf("decode: lookup candidate %q: %w", cand, err)
			}

			if tok == nil {
				continue
			}

			cpLen, ok := codepointLen(cand)
			if !ok {
				continue
			}

			j := i + cpLen
			if j > n {
				continue
			}

			logP := transitionLogProb(transitions, totalWeight, cand, hasPrev)
			nodePot := t.beta*math.Log(float64(tok.Strength)+1) - t.gamma*math.Log(float64(tok.Degree)+1)
			score := dp[i] + logP + nodePot

			if betterPath(score, cpLen, dp[j], back[j]) {
				dp[j] = score
				back[j] = &backEntry{from: i, tokenHex: cand, tokenID: tok.ID, cpLen: cpLen}
			}
		}
	}

	end := reconstructEnd(dp)
	if end == 0 {
		return nil, nil
	}

	return backtrack(back, end), nil
}

// betterPath reports whether a candidate transition into position j with
// the given score and token length should replace whatever currently holds
// dp[j]/back[j]: strictly higher score wins outright, a tie is broken in
// favor of the longer token (spec §4.7 step 3).
func betterPath(score float64, cpLen int, currentDP float64, currentBack *backEntry) bool {
	if score > currentDP {
		return true
	}

	if score < currentDP {
		return false
	}

	return currentBack == nil || cpLen > currentBack.cpLen
}

// reconstructEnd returns n if dp[n] is reachable, otherwise the farthest
// reachable position, ties broken by higher score (spec §4.7 step 4).
func reconstructEnd(dp []float64) int {
	n := len(dp) - 1
	if !math.IsInf(dp[n], -1) {
		return n
	}

	for i := n - 1; i > 0; i-- {
		if !math.IsInf(dp[i], -1) {
			return i
		}
	}

	return 0
}

func backtrack(back []*backEntry, end int) []uint64 {
	var ids []uint64

	for pos := end; pos > 0; {
		entry := back[pos]
		if entry == nil {
			break
		}

		ids = append(ids, entry.tokenID)
		pos = entry.from
	}

	for l, r := 0, len(ids)-1; l < r; l, r = l+1, r-1 {
		ids[l], ids[r] = ids[r], ids[l]
	}

	return ids
}

// candidatesAt returns the known-token prefixes of cps[i:], via the
// decode-candidate cache keyed by (i, first 24 codepoints) (spec §4.7
// step 3).
func (t *Tokenizer) candidatesAt(ctx context.Context, cps []rune, i int) ([]lattice.HexString, error) {
	windowEnd := i + candidateCacheWindow
	if windowEnd > len(cps) {
		windowEnd = len(cps)
	}

	cacheKey := string(cps[i:windowEnd])

	var computeErr error

	result := t.store.DecodeCandidates(i, cacheKey, func() []lattice.HexString {
		escaped := encodeCodepoints(cps[i:])

		matches, err := t.store.PrefixSearch(ctx, escaped)
		if err != nil {
			computeErr = err
			return nil
		}

		return matches
	})

	if computeErr != nil {
		return nil, computeErr
	}

	return result, nil
}

// refinedTransitions fetches prev's refined transitions and their combined
// weight; with no predecessor, returns (nil, 0).
func (t *Tokenizer) refinedTransitions(ctx context.Context, prev lattice.HexString, hasPrev bool) ([]lattice.RefinedTransition, uint64, error) {
	if !hasPrev {
		return nil, 0, nil
	}

	transitions, err := t.store.RefinedTransitionsFrom(ctx, prev)
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	for _, tr := range transitions {
		total += tr.Weight
	}

	return transitions, total, nil
}

// transitionLogProb is spec §4.7 step 3's logP: 0 with no predecessor,
// ln(weight/total) if the candidate is among the refined transitions, else
// the unseen-transition floor.
func transitionLogProb(transitions []lattice.RefinedTransition, total uint64, candidate lattice.HexString, hasPrev bool) float64 {
	if !hasPrev {
		return 0
	}

	if total == 0 {
		return math.Log(unseenTransitionFloor)
	}

	for _, tr := range transitions {
		if tr.Bytes == candidate {
			return math.Log(float64(tr.Weight) / float64(total))
		}
	}

	return math.Log(unseenTransitionFloor)
}

// toCodepoints converts text to its codepoint sequence.
func toCodepoints(text string) []rune {
	return []rune(text)
}

// codepointLen returns the number of codepoints the token identified by hex
// decodes to.
func codepointLen(hex lattice.HexString) (int, bool) {
	raw, err := hex.Bytes()
	if err != nil {
		return 0, false
	}

	return utf8.RuneCount(raw), true
}

// encodeCodepoints UTF-8 encodes cps and hex-escapes the result, for use as
// a [lattice.Lattice.PrefixSearch] argument.
func encodeCodepoints(cps []rune) lattice.HexString {
	var b strings.Builder
	for _, cp := range cps {
		b.WriteRune(cp)
	}

	return lattice.EscapeBytes([]byte(b.String()))
}
