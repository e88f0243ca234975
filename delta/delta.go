// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package delta models the rich-text operation stream produced by a host
// editor: an ordered list of insert, retain and delete operations where
// inserts carry text or an embed plus optional formatting attributes.
//
// All lengths and offsets are counted in runes. An embed counts as one rune.
package delta // import "akhil.cc/deltadoc/delta"

import (
	"encoding/json"
	"unicode/utf8"
)

type Kind int

const (
	KindInsert Kind = iota
	KindRetain
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindRetain:
		return "retain"
	case KindDelete:
		return "delete"
	}
	return "unknown"
}

// Embed types understood by the serializer and recognizer. Anything else is
// a custom embed handed to the host's extension points.
const (
	EmbedImage   = "image"
	EmbedVideo   = "video"
	EmbedDivider = "divider"
)

// Embed is a non-text insert such as {"image": "https://..."}.
type Embed struct {
	Type  string
	Value json.RawMessage
}

// NewEmbed builds an embed whose payload is the JSON encoding of v.
func NewEmbed(typ string, v interface{}) Embed {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte("null")
	}
	return Embed{Type: typ, Value: b}
}

// URL returns the payload as a string, or "" when it is not one.
func (e Embed) URL() string {
	var s string
	if err := json.Unmarshal(e.Value, &s); err != nil {
		return ""
	}
	return s
}

// Known reports whether the embed is one the core converts itself.
func (e Embed) Known() bool {
	switch e.Type {
	case EmbedImage, EmbedVideo, EmbedDivider:
		return true
	}
	return false
}

type Op struct {
	Kind  Kind
	Count int    // retain/delete length
	Text  string // text insert
	Embed *Embed // embed insert
	Attrs Attributes
}

// IsText reports whether op inserts text.
func (op Op) IsText() bool {
	return op.Kind == KindInsert && op.Embed == nil && op.Text != ""
}

// Malformed reports an insert with neither text nor an embed.
func (op Op) Malformed() bool {
	return op.Kind == KindInsert && op.Embed == nil && op.Text == ""
}

// Len is the number of runes the op inserts, retains or deletes.
func (op Op) Len() int {
	switch op.Kind {
	case KindInsert:
		if op.Embed != nil {
			return 1
		}
		return utf8.RuneCountInString(op.Text)
	default:
		return op.Count
	}
}

// Terminator reports whether op is a block terminator: a text insert made
// only of newlines. Any run is accepted. The attributes then describe the
// line just completed and every empty line the remaining newlines end.
func (op Op) Terminator() bool {
	if !op.IsText() {
		return false
	}
	for i := 0; i < len(op.Text); i++ {
		if op.Text[i] != '\n' {
			return false
		}
	}
	return true
}

type Delta struct {
	Ops []Op
}

// New returns a Delta holding ops.
func New(ops ...Op) *Delta {
	return &Delta{Ops: ops}
}

func (d *Delta) Insert(text string, attrs ...Attributes) *Delta {
	if text == "" {
		return d
	}
	op := Op{Kind: KindInsert, Text: text}
	if len(attrs) > 0 {
		op.Attrs = attrs[0]
	}
	d.Ops = append(d.Ops, op)
	return d
}

func (d *Delta) InsertEmbed(e Embed, attrs ...Attributes) *Delta {
	op := Op{Kind: KindInsert, Embed: &e}
	if len(attrs) > 0 {
		op.Attrs = attrs[0]
	}
	d.Ops = append(d.Ops, op)
	return d
}

func (d *Delta) Retain(n int) *Delta {
	if n <= 0 {
		return d
	}
	d.Ops = append(d.Ops, Op{Kind: KindRetain, Count: n})
	return d
}

func (d *Delta) Delete(n int) *Delta {
	if n <= 0 {
		return d
	}
	d.Ops = append(d.Ops, Op{Kind: KindDelete, Count: n})
	return d
}

// Length is the total length of the inserted content.
func (d *Delta) Length() int {
	n := 0
	for _, op := range d.Ops {
		if op.Kind == KindInsert {
			n += op.Len()
		}
	}
	return n
}
