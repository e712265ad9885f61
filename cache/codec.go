package cache

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/schema"
)

// frameDTO is the wire-level projection of a schema.Frame: its unexported
// fields (order, columns, len) are not directly marshalable, so Codec
// implementations round-trip through this instead.
type frameDTO struct {
	Columns []schema.CanonicalColumn            `msgpack:"columns" json:"columns"`
	Cells   map[schema.CanonicalColumn][]schema.Cell `msgpack:"cells" json:"cells"`
}

func toDTO(f *schema.Frame) frameDTO {
	cols := f.Columns()
	cells := make(map[schema.CanonicalColumn][]schema.Cell, len(cols))
	for _, c := range cols {
		cells[c] = f.Column(c)
	}
	return frameDTO{Columns: cols, Cells: cells}
}

func fromDTO(dto frameDTO) *schema.Frame {
	f := schema.NewFrame(dto.Columns...)
	n := 0
	for _, c := range dto.Columns {
		if l := len(dto.Cells[c]); l > n {
			n = l
		}
	}
	for row := 0; row < n; row++ {
		r := make(map[schema.CanonicalColumn]schema.Cell, len(dto.Columns))
		for _, c := range dto.Columns {
			cells := dto.Cells[c]
			if row < len(cells) {
				r[c] = cells[row]
			}
		}
		f.AppendRow(r)
	}
	return f
}

// Codec serializes and deserializes a schema.Frame for on-disk/on-wire
// storage.
type Codec interface {
	Name() string
	Encode(f *schema.Frame) ([]byte, error)
	Decode(data []byte) (*schema.Frame, error)
}

// MsgpackCodec is the default codec (spec §6 "cache serialization"),
// grounded on the teacher's display/bridge use of
// github.com/vmihailenco/msgpack/v5 for compact binary framing.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(f *schema.Frame) ([]byte, error) {
	data, err := msgpack.Marshal(toDTO(f))
	if err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoJSON, "msgpack encode failed", err)
	}
	return data, nil
}

func (MsgpackCodec) Decode(data []byte) (*schema.Frame, error) {
	var dto frameDTO
	if err := msgpack.Unmarshal(data, &dto); err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoJSON, "msgpack decode failed", err)
	}
	return fromDTO(dto), nil
}

// JSONCodec is a human-inspectable fallback, useful for debugging a cache
// entry by hand.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(f *schema.Frame) ([]byte, error) {
	data, err := json.Marshal(toDTO(f))
	if err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoJSON, "json encode failed", err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (*schema.Frame, error) {
	var dto frameDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, cerrors.WrapIoError(cerrors.IoJSON, "json decode failed", err)
	}
	return fromDTO(dto), nil
}
