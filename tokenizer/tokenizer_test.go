package tokenizer

import (
	"path/filepath"
	"testing"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New(writeTestModel(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		if err := tok.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return tok
}

func TestNew(t *testing.T) {
	tok := newTestTokenizer(t)

	if got, want := tok.VocabSize(), len(testPieces)+1; got != want {
		t.Errorf("VocabSize() = %d, want %d", got, want)
	}
	if tok.BOSID() != 0 || tok.PadID() != 1 || tok.EOSID() != 2 || tok.UnkID() != 3 {
		t.Errorf("special IDs = %d/%d/%d/%d, want 0/1/2/3",
			tok.BOSID(), tok.PadID(), tok.EOSID(), tok.UnkID())
	}
}

func TestNew_FileNotFound(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nonexistent.model")); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestFromModel_RejectsBPE(t *testing.T) {
	model, err := ParseModel(encodeModel(testPieces, ModelBPE))
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	if _, err := FromModel(model); err == nil {
		t.Error("expected error for BPE model")
	}
}

func TestTokenizer_Encode(t *testing.T) {
	tok := newTestTokenizer(t)

	text := "hello  world."
	tokens := tok.Encode(text)

	want := []TokenInfo{
		{ID: 4, Text: "▁hello", Start: 0, End: 5},
		{ID: 5, Text: "▁world", Start: 7, End: 12},
		{ID: 7, Text: ".", Start: 12, End: 13},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %+v, want %d", len(tokens), tokens, len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %+v, want %+v", i, tokens[i], want[i])
		}
	}

	// Offsets address the original text.
	if got := text[tokens[1].Start:tokens[1].End]; got != "world" {
		t.Errorf("span of token 1 = %q, want %q", got, "world")
	}
}

func TestTokenizer_Encode_Unknown(t *testing.T) {
	tok := newTestTokenizer(t)

	tokens := tok.Encode("hex")
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}
	last := tokens[len(tokens)-1]
	if last.ID != tok.UnkID() {
		t.Errorf("last token ID = %d, want <unk> %d", last.ID, tok.UnkID())
	}
	if last.Start != 2 || last.End != 3 {
		t.Errorf("last token span = [%d,%d), want [2,3)", last.Start, last.End)
	}
}

func TestTokenizer_EncodeIDs(t *testing.T) {
	tok := newTestTokenizer(t)

	if ids := tok.EncodeIDs(""); len(ids) != 0 {
		t.Errorf("expected no IDs for empty text, got %v", ids)
	}

	ids := tok.EncodeIDs("hello world")
	if len(ids) != 2 {
		t.Fatalf("expected 2 IDs, got %v", ids)
	}
	for i, id := range ids {
		if id < 0 || int(id) >= tok.VocabSize() {
			t.Errorf("token %d: invalid ID %d", i, id)
		}
	}
}

func TestIDMapping_RoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)

	for sp := int32(0); sp < int32(len(testPieces)); sp++ {
		if got := tok.hfIDToSPIndex(tok.spIndexToHFID(sp)); got != sp {
			t.Errorf("SP %d round-tripped to %d", sp, got)
		}
	}
}
