package tokenizer

const negInf = -1e9

// EncodeIDs returns HuggingFace-compatible token IDs for the input text.
func (t *Tokenizer) EncodeIDs(text string) []int32 {
	tokens := t.Encode(text)
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return ids
}

// Encode tokenizes text with the Viterbi algorithm over piece scores. Token
// offsets are byte offsets into text.
func (t *Tokenizer) Encode(text string) []TokenInfo {
	if text == "" {
		return nil
	}

	norm := normalize(text)
	runes := norm.runes
	n := len(runes)
	if n == 0 {
		return nil
	}

	// best[i] = best log probability to tokenize runes[0:i]
	best := make([]float64, n+1)
	// parent[i] = start position of the token ending at position i
	parent := make([]int, n+1)
	tokenAt := make([]string, n+1)

	for i := 1; i <= n; i++ {
		best[i] = negInf
		parent[i] = -1
	}

	unkScore := float64(t.scores[t.idToPiece[t.hfIDToSPIndex(t.unkID)]])

	for i := 1; i <= n; i++ {
		for length := 1; length <= min(t.maxTokenLen, i); length++ {
			j := i - length
			substr := string(runes[j:i])

			score, exists := t.scores[substr]
			if !exists || t.pieceType[substr] == PieceControl {
				continue
			}

			if candidate := best[j] + float64(score); candidate > best[i] {
				best[i] = candidate
				parent[i] = j
				tokenAt[i] = substr
			}
		}

		// No piece ends here: fall back to <unk> for a single rune.
		if best[i] == negInf {
			best[i] = best[i-1] + unkScore
			parent[i] = i - 1
			tokenAt[i] = string(runes[i-1 : i])
		}
	}

	var tokens []TokenInfo
	for pos := n; pos > 0; {
		start := parent[pos]
		piece := tokenAt[pos]

		spIndex, ok := t.pieces[piece]
		if !ok {
			spIndex = 0 // <unk>
		}

		tokens = append(tokens, TokenInfo{
			ID:    t.spIndexToHFID(spIndex),
			Text:  piece,
			Start: norm.starts[start],
			End:   norm.ends[pos-1],
		})
		pos = start
	}

	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}

	return tokens
}
