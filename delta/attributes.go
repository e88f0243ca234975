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

package delta

type Script string

const (
	Super Script = "super"
	Sub   Script = "sub"
)

type List string

const (
	Bullet    List = "bullet"
	Ordered   List = "ordered"
	Checked   List = "checked"
	Unchecked List = "unchecked"
)

// Known reports whether l is one of the four list kinds.
func (l List) Known() bool {
	switch l {
	case Bullet, Ordered, Checked, Unchecked:
		return true
	}
	return false
}

// Attributes is the closed set of formatting keys an op may carry.
// Zero values mean "not set".
type Attributes struct {
	// inline
	Bold   bool
	Italic bool
	Code   bool
	Script Script
	Link   string

	// line
	Header     int
	Blockquote bool
	List       List
	Indent     int
	CodeBlock  bool

	// embed presentation
	Alt    string
	Width  string
	Height string
}

func (a Attributes) IsZero() bool {
	return a == Attributes{}
}

// Inline returns only the inline (and embed presentation) part of a.
func (a Attributes) Inline() Attributes {
	return Attributes{
		Bold:   a.Bold,
		Italic: a.Italic,
		Code:   a.Code,
		Script: a.Script,
		Link:   a.Link,
		Alt:    a.Alt,
		Width:  a.Width,
		Height: a.Height,
	}
}

// Block returns only the line-level part of a.
func (a Attributes) Block() Attributes {
	return Attributes{
		Header:     a.Header,
		Blockquote: a.Blockquote,
		List:       a.List,
		Indent:     a.Indent,
		CodeBlock:  a.CodeBlock,
	}
}

// Merge returns a with every set field of patch applied on top.
func (a Attributes) Merge(patch Attributes) Attributes {
	if patch.Bold {
		a.Bold = true
	}
	if patch.Italic {
		a.Italic = true
	}
	if patch.Code {
		a.Code = true
	}
	if patch.Script != "" {
		a.Script = patch.Script
	}
	if patch.Link != "" {
		a.Link = patch.Link
	}
	if patch.Header != 0 {
		a.Header = patch.Header
	}
	if patch.Blockquote {
		a.Blockquote = true
	}
	if patch.List != "" {
		a.List = patch.List
	}
	if patch.Indent != 0 {
		a.Indent = patch.Indent
	}
	if patch.CodeBlock {
		a.CodeBlock = true
	}
	if patch.Alt != "" {
		a.Alt = patch.Alt
	}
	if patch.Width != "" {
		a.Width = patch.Width
	}
	if patch.Height != "" {
		a.Height = patch.Height
	}
	return a
}

type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockHeader
	BlockQuote
	BlockList
	BlockCode
)

// BlockKind classifies the line attributes of a block terminator.
// Precedence follows the serializer: header, blockquote, list, code-block.
func (a Attributes) BlockKind() BlockKind {
	switch {
	case a.Header > 0:
		return BlockHeader
	case a.Blockquote:
		return BlockQuote
	case a.List != "":
		return BlockList
	case a.CodeBlock:
		return BlockCode
	}
	return BlockNone
}

// Format tags the inline formats that open and close around text.
type Format int

const (
	FormatBold Format = iota
	FormatItalic
	FormatSuper
	FormatSub
	FormatCode
	FormatLink
)

// Formats lists the inline formats in the order they are opened.
var Formats = [...]Format{FormatBold, FormatItalic, FormatSuper, FormatSub, FormatCode, FormatLink}

func (f Format) String() string {
	switch f {
	case FormatBold:
		return "bold"
	case FormatItalic:
		return "italic"
	case FormatSuper:
		return "superscript"
	case FormatSub:
		return "subscript"
	case FormatCode:
		return "code"
	case FormatLink:
		return "link"
	}
	return "unknown"
}

// Has reports whether a carries the inline format f.
func (a Attributes) Has(f Format) bool {
	switch f {
	case FormatBold:
		return a.Bold
	case FormatItalic:
		return a.Italic
	case FormatSuper:
		return a.Script == Super
	case FormatSub:
		return a.Script == Sub
	case FormatCode:
		return a.Code
	case FormatLink:
		return a.Link != ""
	}
	return false
}
