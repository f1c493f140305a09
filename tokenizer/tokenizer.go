// Package tokenizer implements the SentencePiece Unigram tokenizer used by the
// SaT boundary model, with HuggingFace XLM-RoBERTa token IDs.
package tokenizer

import (
	"fmt"
	"unicode/utf8"
)

// Tokenizer implements XLM-RoBERTa compatible SentencePiece Unigram tokenization.
//
// Token IDs are remapped from SentencePiece indices to the HuggingFace
// XLM-RoBERTa convention:
//   - HF[0] = <s>   (SP[1])
//   - HF[1] = <pad> (not in SentencePiece)
//   - HF[2] = </s>  (SP[2])
//   - HF[3] = <unk> (SP[0])
//   - HF[n+1] = SP[n] for n >= 3
type Tokenizer struct {
	pieces    map[string]int32   // token string -> SentencePiece index
	scores    map[string]float32 // token string -> log probability
	idToPiece []string           // SentencePiece index -> token string
	pieceType map[string]PieceType

	bosID int32
	padID int32
	eosID int32
	unkID int32

	maxTokenLen int // in runes
}

// TokenInfo is a token with its byte span in the original text.
type TokenInfo struct {
	ID    int32
	Text  string
	Start int
	End   int
}

// New loads a tokenizer from a SentencePiece .model file.
func New(modelPath string) (*Tokenizer, error) {
	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	return FromModel(model)
}

// FromModel builds a tokenizer from an already decoded model.
func FromModel(model *Model) (*Tokenizer, error) {
	if model.ModelType != ModelUnigram {
		return nil, fmt.Errorf("unsupported model type %d: only unigram models are supported", model.ModelType)
	}
	if len(model.Pieces) < 3 {
		return nil, fmt.Errorf("model has %d pieces, want at least the <unk>, <s>, </s> specials", len(model.Pieces))
	}

	t := &Tokenizer{
		pieces:    make(map[string]int32, len(model.Pieces)),
		scores:    make(map[string]float32, len(model.Pieces)),
		idToPiece: make([]string, len(model.Pieces)),
		pieceType: make(map[string]PieceType, len(model.Pieces)),
		bosID:     0,
		padID:     1,
		eosID:     2,
		unkID:     3,
	}

	for i, piece := range model.Pieces {
		s := piece.Piece
		t.pieces[s] = int32(i)
		t.scores[s] = piece.Score
		t.idToPiece[i] = s
		t.pieceType[s] = piece.Type

		t.maxTokenLen = max(t.maxTokenLen, utf8.RuneCountInString(s))
	}

	return t, nil
}

// spIndexToHFID converts a SentencePiece index to a HuggingFace XLM-RoBERTa token ID.
func (t *Tokenizer) spIndexToHFID(spIndex int32) int32 {
	switch spIndex {
	case 0: // <unk>
		return 3
	case 1: // <s>
		return 0
	case 2: // </s>
		return 2
	default:
		return spIndex + 1
	}
}

// hfIDToSPIndex is the inverse of spIndexToHFID. The <pad> ID has no
// SentencePiece counterpart and maps to <unk>.
func (t *Tokenizer) hfIDToSPIndex(hfID int32) int32 {
	switch hfID {
	case 0:
		return 1
	case 1, 3:
		return 0
	case 2:
		return 2
	default:
		return hfID - 1
	}
}

// Close releases tokenizer resources.
func (t *Tokenizer) Close() error {
	return nil
}

// VocabSize returns the HuggingFace vocabulary size: the SentencePiece
// vocabulary plus the inserted <pad>.
func (t *Tokenizer) VocabSize() int {
	return len(t.idToPiece) + 1
}

// BOSID returns the beginning-of-sentence token ID.
func (t *Tokenizer) BOSID() int32 { return t.bosID }

// PadID returns the padding token ID.
func (t *Tokenizer) PadID() int32 { return t.padID }

// EOSID returns the end-of-sentence token ID.
func (t *Tokenizer) EOSID() int32 { return t.eosID }

// UnkID returns the unknown token ID.
func (t *Tokenizer) UnkID() int32 { return t.unkID }
