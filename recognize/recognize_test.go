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

// Tests for recognize.go
package recognize_test

import (
	"reflect"
	"testing"

	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/doc"
	"akhil.cc/deltadoc/gen/asciidoc"
	"akhil.cc/deltadoc/recognize"
	"github.com/sanity-io/litter"
)

var litCfg = litter.Options{
	Compact:           true,
	StripPackageNames: false,
	HidePrivateFields: false,
	Separator:         " ",
}

// attach wires a Recognizer to d the way an editor does.
func attach(d *doc.Document, opts ...recognize.Option) *recognize.Recognizer {
	opts = append([]recognize.Option{recognize.WithScheduler(d.Schedule)}, opts...)
	r := recognize.New(d, opts...)
	d.OnChange(r.HandleTextChange)
	return r
}

type smallcase struct {
	in    string
	paste bool
	want  *delta.Delta
	sel   int
}

func run(t *testing.T, tests []smallcase) {
	t.Helper()
	for i, test := range tests {
		d := doc.New(nil)
		attach(d)
		if test.paste {
			d.Paste(test.in)
		} else {
			d.Type(test.in)
		}
		got := d.Contents()
		if !reflect.DeepEqual(test.want.Ops, got.Ops) {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, litCfg.Sdump(test.want.Ops), litCfg.Sdump(got.Ops))
		}
		if sel, _ := d.Selection(); sel != test.sel {
			t.Errorf("case %d, in %q, want cursor at %d, got %d", i, test.in, test.sel, sel)
		}
	}
}

func TestLineMarkers(t *testing.T) {
	tests := []smallcase{
		{in: "== Title", want: delta.New().Insert("Title").Insert("\n", delta.Attributes{Header: 2}), sel: 5},
		{in: "= Doc", want: delta.New().Insert("Doc").Insert("\n", delta.Attributes{Header: 1}), sel: 3},
		{in: "==", want: delta.New().Insert("==\n"), sel: 2},
		{in: "== ", want: delta.New().Insert("== \n"), sel: 3},
		{in: "* item", want: delta.New().Insert("item").Insert("\n", delta.Attributes{List: delta.Bullet}), sel: 4},
		{in: "** item", want: delta.New().Insert("item").Insert("\n", delta.Attributes{List: delta.Bullet, Indent: 1}), sel: 4},
		{in: ". one", want: delta.New().Insert("one").Insert("\n", delta.Attributes{List: delta.Ordered}), sel: 3},
		{in: "* [x] done", want: delta.New().Insert("done").Insert("\n", delta.Attributes{List: delta.Checked}), sel: 4},
		{in: "* [ ] todo", paste: true, want: delta.New().Insert("todo").Insert("\n", delta.Attributes{List: delta.Unchecked}), sel: 4},
		{in: "** [*] done", paste: true, want: delta.New().Insert("done").Insert("\n", delta.Attributes{List: delta.Checked, Indent: 1}), sel: 4},
		{in: "> quoted", want: delta.New().Insert("quoted").Insert("\n", delta.Attributes{Blockquote: true}), sel: 6},
		{in: "'''", want: delta.New().InsertEmbed(delta.NewEmbed(delta.EmbedDivider, true)).Insert("\n"), sel: 1},
		{in: "* one\n* two", paste: true, want: delta.New().
			Insert("one").Insert("\n", delta.Attributes{List: delta.Bullet}).
			Insert("two").Insert("\n", delta.Attributes{List: delta.Bullet}), sel: 7},
	}
	run(t, tests)
}

func TestInline(t *testing.T) {
	bold := delta.Attributes{Bold: true}
	tests := []smallcase{
		{in: "*hello*", want: delta.New().Insert("hello", bold).Insert(" \n"), sel: 6},
		{in: "*hello* ", want: delta.New().Insert("hello", bold).Insert(" \n"), sel: 6},
		{in: "*hello* ", paste: true, want: delta.New().Insert("hello", bold).Insert(" \n"), sel: 6},
		{in: "*hello* world", want: delta.New().Insert("hello", bold).Insert(" world\n"), sel: 11},
		{in: "*hello*  x", want: delta.New().Insert("hello", bold).Insert("  x\n"), sel: 8},
		{in: "**bo**ld", paste: true, want: delta.New().Insert("bo", bold).Insert("ld\n"), sel: 4},
		{in: "a*b*c", paste: true, want: delta.New().Insert("a*b*c\n"), sel: 5},
		{in: "* a *", paste: true, want: delta.New().Insert("a *").Insert("\n", delta.Attributes{List: delta.Bullet}), sel: 3},
		{in: "_it_", want: delta.New().Insert("it", delta.Attributes{Italic: true}).Insert(" \n"), sel: 3},
		{in: "_it_ ", want: delta.New().Insert("it", delta.Attributes{Italic: true}).Insert(" \n"), sel: 3},
		{in: "`go` now", want: delta.New().Insert("go", delta.Attributes{Code: true}).Insert(" now\n"), sel: 6},
		{in: "x^2^ y", want: delta.New().Insert("x").Insert("2", delta.Attributes{Script: delta.Super}).Insert(" y\n"), sel: 4},
		{in: "`code`", want: delta.New().Insert("code", delta.Attributes{Code: true}).Insert(" \n"), sel: 5},
		{in: "a``b``c", paste: true, want: delta.New().Insert("a").Insert("b", delta.Attributes{Code: true}).Insert("c\n"), sel: 3},
		{in: "x^2^", want: delta.New().Insert("x").Insert("2", delta.Attributes{Script: delta.Super}).Insert(" \n"), sel: 3},
		{in: "H~2~O", paste: true, want: delta.New().Insert("H").Insert("2", delta.Attributes{Script: delta.Sub}).Insert("O\n"), sel: 3},
		{in: "Some *bold* and _it_", paste: true, want: delta.New().
			Insert("Some ").Insert("bold", bold).Insert(" and ").
			Insert("it", delta.Attributes{Italic: true}).Insert(" \n"), sel: 17},
	}
	run(t, tests)
}

func TestMacros(t *testing.T) {
	link := delta.Attributes{Link: "https://x.io"}
	tests := []smallcase{
		{in: "image::a.png[Alt,width=100]", paste: true, want: delta.New().
			InsertEmbed(delta.NewEmbed(delta.EmbedImage, "a.png"), delta.Attributes{Alt: "Alt", Width: "100"}).
			Insert("\n"), sel: 1},
		{in: "video::clip.mp4[]", paste: true, want: delta.New().
			InsertEmbed(delta.NewEmbed(delta.EmbedVideo, "clip.mp4")).Insert("\n"), sel: 1},
		{in: "see https://example.com[Example] now", paste: true, want: delta.New().
			Insert("see ").Insert("Example", delta.Attributes{Link: "https://example.com"}).Insert(" now\n"), sel: 15},
		{in: "link:irc2://x[chat]", paste: true, want: delta.New().
			Insert("chat", delta.Attributes{Link: "irc2://x"}).Insert(" \n"), sel: 5},
		{in: "https://x.io[X]", want: delta.New().Insert("X", link).Insert(" \n"), sel: 2},
		{in: "see https://x.io[site] ok", want: delta.New().
			Insert("see ").Insert("site", link).Insert(" ok\n"), sel: 11},
		{in: "see https://x.io[*b*] ok", paste: true, want: delta.New().
			Insert("see ").Insert("b", delta.Attributes{Link: "https://x.io", Bold: true}).Insert(" ok\n"), sel: 8},
		{in: "say nostr:npub1abc[Al] hi", paste: true, want: delta.New().
			Insert("say ").Insert("Al", delta.Attributes{Link: "nostr:npub1abc"}).Insert(" hi\n"), sel: 9},
		{in: "go https://x.io now", want: delta.New().Insert("go ").Insert("https://x.io", link).Insert(" now\n"), sel: 19},
		{in: "<https://x.io>", paste: true, want: delta.New().Insert("https://x.io", link).Insert("\n"), sel: 12},
		{in: `"https://x.io"`, paste: true, want: delta.New().Insert("\"https://x.io\"\n"), sel: 14},
	}
	run(t, tests)
}

func TestFences(t *testing.T) {
	code := delta.Attributes{CodeBlock: true}
	tests := []smallcase{
		{in: "----", want: delta.New().Insert("\n", code), sel: 0},
		{in: "----x*y*", want: delta.New().Insert("x*y*").Insert("\n", code), sel: 4},
		{in: "[source]\n----", want: delta.New().Insert("\n", code), sel: 0},
		{in: "[source,go]\n----\nfmt.Println()\n----\nafter", paste: true, want: delta.New().
			Insert("fmt.Println()").Insert("\n", code).Insert("after\n"), sel: 19},
		{in: "----\na\n\nb\n----", paste: true, want: delta.New().
			Insert("a").Insert("\n\n", code).Insert("b").Insert("\n", code).Insert("\n"), sel: 5},
		{in: "[quote]\n----\nx", paste: true, want: delta.New().Insert("[quote]\n----\nx\n"), sel: 14},
		{in: "[]\n----\ncode\n----", paste: true, want: delta.New().
			Insert("code").Insert("\n", code).Insert("\n"), sel: 5},
		{in: "[,go]\n----\ncode\n----", paste: true, want: delta.New().
			Insert("code").Insert("\n", code).Insert("\n"), sel: 5},
		{in: "[verse]\n----\ncode\n----", paste: true, want: delta.New().
			Insert("[verse]\ncode").Insert("\n", code).Insert("\n"), sel: 13},
	}
	run(t, tests)
}

func TestCodeIsLeftAlone(t *testing.T) {
	d := doc.New(delta.New().Insert("a").Insert("\n", delta.Attributes{CodeBlock: true}))
	attach(d)
	d.SetSelection(1)
	d.Type("*b* == c")
	want := delta.New().Insert("a*b* == c").Insert("\n", delta.Attributes{CodeBlock: true})
	if got := d.Contents(); !reflect.DeepEqual(want.Ops, got.Ops) {
		t.Errorf("code block,\nwant %s,\ngot %s", litCfg.Sdump(want.Ops), litCfg.Sdump(got.Ops))
	}

	d = doc.New(delta.New().Insert("*x*", delta.Attributes{Code: true}).Insert("\n"))
	attach(d)
	d.SetSelection(3)
	d.Type(" ")
	want = delta.New().Insert("*x* ", delta.Attributes{Code: true}).Insert("\n")
	if got := d.Contents(); !reflect.DeepEqual(want.Ops, got.Ops) {
		t.Errorf("inline code,\nwant %s,\ngot %s", litCfg.Sdump(want.Ops), litCfg.Sdump(got.Ops))
	}
}

func TestExitTypedFence(t *testing.T) {
	code := delta.Attributes{CodeBlock: true}
	d := doc.New(delta.New().Insert("x").Insert("\n", code))
	attach(d)
	d.SetSelection(1)
	d.Enter()
	d.Type("----")
	want := delta.New().Insert("x").Insert("\n", code).Insert("\n")
	if got := d.Contents(); !reflect.DeepEqual(want.Ops, got.Ops) {
		t.Errorf("want %s,\ngot %s", litCfg.Sdump(want.Ops), litCfg.Sdump(got.Ops))
	}
	if sel, _ := d.Selection(); sel != 2 {
		t.Errorf("want cursor at 2, got %d", sel)
	}
}

func TestIgnoresNonUserChanges(t *testing.T) {
	d := doc.New(nil)
	attach(d)
	d.InsertText(0, "*a* == b", delta.Attributes{})
	want := delta.New().Insert("*a* == b\n")
	if got := d.Contents(); !reflect.DeepEqual(want.Ops, got.Ops) {
		t.Errorf("want %s,\ngot %s", litCfg.Sdump(want.Ops), litCfg.Sdump(got.Ops))
	}
}

func TestEmbedReader(t *testing.T) {
	d := doc.New(nil)
	attach(d, recognize.WithEmbedReader(func(e delta.Embed) (string, bool) {
		if e.Type != "mention" {
			return "", false
		}
		return "*bob*", true
	}))
	d.PasteEmbed(delta.NewEmbed("mention", map[string]string{"id": "bob"}))
	want := delta.New().Insert("bob", delta.Attributes{Bold: true}).Insert(" \n")
	if got := d.Contents(); !reflect.DeepEqual(want.Ops, got.Ops) {
		t.Errorf("want %s,\ngot %s", litCfg.Sdump(want.Ops), litCfg.Sdump(got.Ops))
	}
	if sel, _ := d.Selection(); sel != 4 {
		t.Errorf("want cursor at 4, got %d", sel)
	}

	// unknown embeds stay
	d.SetSelection(0)
	d.PasteEmbed(delta.NewEmbed("poll", 1))
	if got := d.Length(); got != 6 {
		t.Errorf("want length 6, got %d", got)
	}
}

func TestDeferred(t *testing.T) {
	d := doc.New(nil)
	r := recognize.New(d)
	d.OnChange(r.HandleTextChange)

	d.Paste("https://x.io ")
	if r.Pending() != 1 {
		t.Fatalf("want 1 pending, got %d", r.Pending())
	}
	// the text moved on before the queue ran
	d.DeleteText(0, 5)
	r.Drain()
	if r.Pending() != 0 {
		t.Errorf("want empty queue, got %d", r.Pending())
	}
	want := delta.New().Insert("://x.io \n")
	if got := d.Contents(); !reflect.DeepEqual(want.Ops, got.Ops) {
		t.Errorf("stale link,\nwant %s,\ngot %s", litCfg.Sdump(want.Ops), litCfg.Sdump(got.Ops))
	}

	var order []int
	r.Defer(func() {
		order = append(order, 1)
		r.Defer(func() { order = append(order, 3) })
	})
	r.Defer(func() { order = append(order, 2) })
	r.Drain()
	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Errorf("want drain order [1 2 3], got %v", order)
	}
}

// Recognized markup written back out reads the same.
func TestRoundTrip(t *testing.T) {
	tests := []string{
		"== Title\n",
		"Some *bold* and _it_ text\n",
		"* one\n* two\n",
		"** [x] done\n",
		"> quoted\n",
		"in**side**word\n",
		"E = mc^2^ and H~2~O\n",
		"see https://x.io now\n",
		"see https://x.io[the site]\n",
		"see link:ftp2://x.io[the site]\n",
		"image::a.png[Alt,width=100]\n",
		"'''\n",
		"----\nfmt.Println()\n----\n\nafter\n",
	}
	for i, in := range tests {
		d := doc.New(nil)
		attach(d)
		d.Paste(in[:len(in)-1])
		got, warns := asciidoc.Convert(d.Contents())
		if got != in || len(warns) > 0 {
			t.Errorf("case %d,\nwant %q,\ngot %q,\ncontents %s,\nwarnings %v", i, in, got, litCfg.Sdump(d.Contents().Ops), warns)
		}
	}

	typed := []string{
		"== Title\n",
		"Some *bold* and _it_ text\n",
		"use `go` now\n",
		"E = mc^2^ now\n",
		"see https://x.io now\n",
		"see https://x.io[site] ok\n",
	}
	for i, in := range typed {
		d := doc.New(nil)
		attach(d)
		d.Type(in[:len(in)-1])
		got, warns := asciidoc.Convert(d.Contents())
		if got != in || len(warns) > 0 {
			t.Errorf("typed case %d,\nwant %q,\ngot %q,\ncontents %s,\nwarnings %v", i, in, got, litCfg.Sdump(d.Contents().Ops), warns)
		}
	}
}
