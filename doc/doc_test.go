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

package doc_test

import (
	"testing"

	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/doc"
	"akhil.cc/deltadoc/recognize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d := doc.New(nil)
	assert.Equal(t, "\n", d.Text())
	assert.Equal(t, 1, d.Length())

	d = doc.New(delta.New().
		Insert("Hi ").
		Insert("there", delta.Attributes{Bold: true}).
		InsertEmbed(delta.NewEmbed(delta.EmbedImage, "a.png")).
		Insert("\n", delta.Attributes{Header: 1}).
		Insert("end"))
	assert.Equal(t, "Hi there￼\nend\n", d.Text())
	assert.Equal(t, 14, d.Length())
	sel, ok := d.Selection()
	assert.True(t, ok)
	assert.Equal(t, 13, sel)

	want := delta.New().
		Insert("Hi ").
		Insert("there", delta.Attributes{Bold: true}).
		InsertEmbed(delta.NewEmbed(delta.EmbedImage, "a.png")).
		Insert("\n", delta.Attributes{Header: 1}).
		Insert("end\n")
	assert.Equal(t, want.Ops, d.Contents().Ops)
}

func TestLines(t *testing.T) {
	d := doc.New(delta.New().Insert("ab\ncd\n"))

	line, off, ok := d.Line(0)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{line, off})
	line, off, ok = d.Line(2)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 2}, [2]int{line, off})
	line, off, ok = d.Line(4)
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 1}, [2]int{line, off})
	_, _, ok = d.Line(6)
	assert.False(t, ok)

	assert.Equal(t, "ab", d.LineText(0))
	assert.Equal(t, "cd", d.LineText(1))
	assert.Equal(t, "", d.LineText(2))
}

func TestEdits(t *testing.T) {
	d := doc.New(delta.New().Insert("hello world"))
	d.SetSelection(6)

	d.InsertText(6, "big ", delta.Attributes{Italic: true})
	sel, _ := d.Selection()
	assert.Equal(t, 6, sel, "insert at the cursor keeps it")

	d.DeleteText(0, 6)
	sel, _ = d.Selection()
	assert.Equal(t, 0, sel)
	assert.Equal(t, "big world\n", d.Text())

	d.FormatText(4, 5, delta.Attributes{Bold: true})
	d.FormatLine(0, 0, delta.Attributes{Blockquote: true, Bold: true})
	assert.Equal(t, delta.Attributes{Bold: true, Blockquote: true}, d.Format(5))
	assert.Equal(t, delta.Attributes{Italic: true, Blockquote: true}, d.Format(0))

	d.RemoveFormat(0, 2)
	assert.Equal(t, delta.Attributes{}, d.Format(0))
	assert.Equal(t, delta.Attributes{Bold: true}, d.Format(5))

	// the last newline stays
	d.DeleteText(0, d.Length())
	assert.Equal(t, "\n", d.Text())
}

func TestUserEdits(t *testing.T) {
	d := doc.New(delta.New().Insert("ab", delta.Attributes{Bold: true}).Insert("\n", delta.Attributes{List: delta.Bullet}))
	var changes []*delta.Delta
	var sources []string
	d.OnChange(func(change, old *delta.Delta, source string) {
		changes = append(changes, change)
		sources = append(sources, source)
	})

	d.Type("c")
	require.Len(t, changes, 1)
	assert.Equal(t, recognize.SourceUser, sources[0])
	assert.Equal(t, delta.New().Retain(2).Insert("c", delta.Attributes{Bold: true}).Ops, changes[0].Ops)

	d.Enter()
	d.Paste("x\ny")
	assert.Equal(t, "abc\nx\ny\n", d.Text())
	assert.Equal(t, delta.Attributes{List: delta.Bullet}, d.Format(4), "split lines keep the line format")
	sel, _ := d.Selection()
	assert.Equal(t, 7, sel)
}

func TestSchedule(t *testing.T) {
	d := doc.New(nil)
	ran := 0
	d.Schedule(func() { ran++ })
	assert.Equal(t, 0, ran)
	d.Type("a")
	assert.Equal(t, 1, ran)
	d.Flush()
	assert.Equal(t, 1, ran)
}

func TestBlur(t *testing.T) {
	d := doc.New(nil)
	d.Blur()
	_, ok := d.Selection()
	assert.False(t, ok)
	d.SetSelection(10)
	sel, ok := d.Selection()
	assert.True(t, ok)
	assert.Equal(t, 0, sel)
}

func TestReplay(t *testing.T) {
	typed := doc.Replay("= Title\n*bold* text", false)
	require.Equal(t, "Title\nbold text\n", typed.Text())
	assert.Equal(t, 1, typed.Format(0).Header)
	assert.Zero(t, typed.Format(6).Header, "a line after a header is plain")
	assert.True(t, typed.Format(6).Bold)
	assert.False(t, typed.Format(10).Bold)

	pasted := doc.Replay("* one\n* two\n", true)
	require.Equal(t, "one\ntwo\n\n", pasted.Text())
	assert.Equal(t, delta.Bullet, pasted.Format(0).List)
	assert.Equal(t, delta.Bullet, pasted.Format(4).List)
}
