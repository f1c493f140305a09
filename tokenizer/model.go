package tokenizer

import (
	"errors"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// PieceType mirrors SentencePiece's ModelProto.SentencePiece.Type.
type PieceType int32

const (
	PieceNormal      PieceType = 1
	PieceUnknown     PieceType = 2
	PieceControl     PieceType = 3
	PieceUserDefined PieceType = 4
	PieceUnused      PieceType = 5
	PieceByte        PieceType = 6
)

// ModelType mirrors SentencePiece's TrainerSpec.ModelType.
type ModelType int32

const (
	ModelUnigram ModelType = 1
	ModelBPE     ModelType = 2
	ModelWord    ModelType = 3
	ModelChar    ModelType = 4
)

// Field numbers from sentencepiece_model.proto.
const (
	fieldPieces      protowire.Number = 1
	fieldTrainerSpec protowire.Number = 2

	fieldPiece     protowire.Number = 1
	fieldScore     protowire.Number = 2
	fieldPieceType protowire.Number = 3

	fieldModelType protowire.Number = 3
)

var errNoPieces = errors.New("model has no pieces")

// Piece represents a vocabulary piece from the model.
type Piece struct {
	Piece string
	Score float32
	Type  PieceType
}

// Model represents a loaded SentencePiece model. Only the vocabulary and the
// trainer's model type are decoded; normalizer rules are not used.
type Model struct {
	Pieces    []Piece
	ModelType ModelType
}

// LoadModel loads a SentencePiece model from a .model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	model, err := ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("parsing protobuf: %w", err)
	}
	return model, nil
}

// ParseModel decodes a serialized ModelProto.
func ParseModel(b []byte) (*Model, error) {
	m := &Model{ModelType: ModelUnigram}

	err := walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == fieldPieces && typ == protowire.BytesType:
			p, err := parsePiece(v)
			if err != nil {
				return fmt.Errorf("piece %d: %w", len(m.Pieces), err)
			}
			m.Pieces = append(m.Pieces, p)
		case num == fieldTrainerSpec && typ == protowire.BytesType:
			return walkFields(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				if num == fieldModelType && typ == protowire.VarintType {
					x, _ := protowire.ConsumeVarint(v)
					m.ModelType = ModelType(x)
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(m.Pieces) == 0 {
		return nil, errNoPieces
	}
	return m, nil
}

func parsePiece(b []byte) (Piece, error) {
	p := Piece{Type: PieceNormal}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == fieldPiece && typ == protowire.BytesType:
			p.Piece = string(v)
		case num == fieldScore && typ == protowire.Fixed32Type:
			x, _ := protowire.ConsumeFixed32(v)
			p.Score = math.Float32frombits(x)
		case num == fieldPieceType && typ == protowire.VarintType:
			x, _ := protowire.ConsumeVarint(v)
			p.Type = PieceType(x)
		}
		return nil
	})
	return p, err
}

// walkFields calls fn for every field in b. For length-delimited fields v is
// the payload; for scalar fields v starts at the encoded value.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var v []byte
		if typ == protowire.BytesType {
			payload, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			v, n = payload, m
		} else {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v = b[:n]
		}

		if err := fn(num, typ, v); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
