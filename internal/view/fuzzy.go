package view

import "strings"

// fuzzyScore implements a Smith-Waterman-like local alignment scorer for
// matching pattern as a (not necessarily contiguous) subsequence of text. It
// fills a classic local-alignment DP table where a match scores a base
// reward plus a consecutive-run bonus, a gap costs a small penalty (an
// alignment already under way never drops below one, so it survives any
// gap), and scores never drop below zero (the "local" part of the
// alignment), then reports the best score in the table's last row, i.e.
// among alignments that consumed the whole pattern. A non-match returns
// (false, 0).
func fuzzyScore(text, pattern string, caseInsensitive bool) (bool, int) {
	if pattern == "" {
		return true, 0
	}
	if caseInsensitive {
		text = strings.ToLower(text)
		pattern = strings.ToLower(pattern)
	}
	t := []rune(text)
	p := []rune(pattern)

	const (
		matchScore       = 16
		consecutiveBonus = 8
		gapPenalty       = 1
	)

	// score[i][j]: best local-alignment score of matching p[:i] within
	// t[:j]. Rows are pattern positions, columns are text positions, exactly
	// as in the standard SW recurrence.
	rows := len(p) + 1
	cols := len(t) + 1
	score := make([][]int, rows)
	for i := range score {
		score[i] = make([]int, cols)
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cell := 0
			// A match extends only an alignment of p[:i-1] that is alive
			// (score > 0); the first pattern character may start anywhere.
			if p[i-1] == t[j-1] && (i == 1 || score[i-1][j-1] > 0) {
				cell = score[i-1][j-1] + matchScore
				if i > 1 && j > 1 && p[i-2] == t[j-2] {
					cell += consecutiveBonus
				}
			}
			// Skipping a character of text (a gap) never helps matching more
			// of the pattern, but keeps the running alignment alive at a
			// small cost so a later run of matches can still score well.
			if prev := score[i][j-1]; prev > 0 {
				skip := prev - gapPenalty
				if skip < 1 {
					skip = 1
				}
				if skip > cell {
					cell = skip
				}
			}
			if cell < 0 {
				cell = 0
			}
			score[i][j] = cell
		}
	}

	// Only the last row represents an alignment that consumed the entire
	// pattern; a partial match (pattern not fully found as a subsequence)
	// must not count as a match, however high its partial score.
	best := 0
	for j := 1; j < cols; j++ {
		if v := score[rows-1][j]; v > best {
			best = v
		}
	}
	return best > 0, best
}
