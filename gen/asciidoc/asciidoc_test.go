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

package asciidoc_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"akhil.cc/deltadoc/delim"
	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/gen"
	"akhil.cc/deltadoc/gen/asciidoc"
)

func TestLifecycle(t *testing.T) {
	d := delta.New().Insert("x\n")
	g := asciidoc.Gen(d)
	if err := g.Wait(); err == nil {
		t.Error("Wait before Start should fail")
	}
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	if err := g.Start(); err == nil {
		t.Error("second Start should fail")
	}
	if err := g.Wait(); err != nil {
		t.Error(err)
	}

	g = asciidoc.Gen(d)
	g.Stdout = &bytes.Buffer{}
	if _, err := g.StdoutPipe(); err == nil {
		t.Error("StdoutPipe with Stdout set should fail")
	}
	if _, err := g.Output(); err == nil {
		t.Error("Output with Stdout set should fail")
	}
}

func TestGenContextNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want panic on nil context")
		}
	}()
	asciidoc.GenContext(nil, delta.New())
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	g := asciidoc.GenContext(ctx, delta.New().Insert("x\n"))
	g.Stdout = &out
	if err := g.Run(); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("want no output, got %q", out.String())
	}
}

func TestWarningsAndLogger(t *testing.T) {
	var logs bytes.Buffer
	g := asciidoc.Gen(delta.New().Insert("a").Retain(2).Insert("b\n"))
	g.Logger = log.New(&logs, "", 0)
	out, err := g.Output()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "ab\n" {
		t.Errorf("want %q, got %q", "ab\n", out)
	}
	if len(g.Warnings) != 1 || g.Warnings[0].Index != 1 {
		t.Errorf("want one warning for op 1, got %v", g.Warnings)
	}
	if !strings.Contains(logs.String(), "op 1: unexpected retain") {
		t.Errorf("warning not logged, got %q", logs.String())
	}
}

func TestPolicy(t *testing.T) {
	g := asciidoc.Gen(delta.New().Insert("see ").Insert("chat", delta.Attributes{Link: "irc://x"}))
	g.Policy = delim.Policy{Schemes: []string{"https"}}
	out, err := g.Output()
	if err != nil {
		t.Fatal(err)
	}
	if want := "see link:irc://x[chat]\n"; string(out) != want {
		t.Errorf("want %q, got %q", want, out)
	}
}

func TestChainStderr(t *testing.T) {
	d := delta.New().Insert("a").InsertEmbed(delta.NewEmbed("widget", 1)).Insert("\n")
	g := asciidoc.Gen(d)
	g.Embeds = gen.Chain{gen.Mention, &gen.Command{Line: `sh -c 'echo oops >&2; cat >/dev/null'`}}
	out, err := g.CombinedOutput()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "oops\n") {
		t.Errorf("want command stderr in the combined output, got %q", out)
	}
	if len(g.Warnings) != 1 {
		t.Errorf("want one warning for the unconverted embed, got %v", g.Warnings)
	}
}
