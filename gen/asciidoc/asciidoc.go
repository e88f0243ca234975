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

// Package asciidoc converts a rich-text operation stream into AsciiDoc.
//
// Operations map to the following markup:
// 	header 1-6 (line)            = Title ... ====== Title
// 	blockquote (line)            > text
// 	list bullet/ordered (line)   * item, ** nested, . item
// 	list checked/unchecked       * [x] done, * [ ] todo
// 	code-block (line)            ---- fenced lines ----
// 	bold                         *text* or **text**
// 	italic                       _text_ or __text__
// 	code                         `text` or ``text``
// 	script super/sub             ^text^, ~text~
// 	link                         https://url[text], link:scheme:url[text], bare URL
// 	image/video embed            image::url[alt,width=,height=,link=], video::url[]
// 	divider embed                '''
//
// Single (constrained) or doubled (unconstrained) markers are chosen by
// package delim. Custom embeds are handed to a gen.EmbedConverter.
package asciidoc // import "akhil.cc/deltadoc/gen/asciidoc"

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"sync"

	"akhil.cc/deltadoc/delim"
	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/gen"
)

type syncWriter struct {
	m sync.Mutex
	w io.Writer
}

func (s *syncWriter) Write(p []byte) (n int, err error) {
	s.m.Lock()
	defer s.m.Unlock()
	n, err = s.w.Write(p)
	return
}

type stickyCountWriter struct {
	n   int64
	err error
	w   io.Writer
}

func (c *stickyCountWriter) Write(p []byte) (n int, err error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err = c.w.Write(p)
	c.err = err
	c.n += int64(n)
	return
}

// Generator represents a non-reusable AsciiDoc output generator for a delta.
type Generator struct {
	// Stdout and Stderr specify the generator's standard output and standard error.
	//
	// AsciiDoc output will be written to standard out. Standard error is only
	// written by a process run by a gen.Command embed converter.
	//
	// If Stdout == Stderr, at most one goroutine at a time will call Write.
	Stdout io.Writer
	Stderr io.Writer

	// Logger receives one line per Warning. Nil discards them.
	Logger *log.Logger
	Policy delim.Policy
	Embeds gen.EmbedConverter

	// Warnings is populated once the generator has finished.
	Warnings []Warning

	ctx      context.Context
	delta    *delta.Delta
	waitdone chan error

	m     sync.Mutex
	pipes []io.Closer
}

// Gen returns the Generator struct to convert the given delta into AsciiDoc.
//
// It sets only the delta and the default delimiter policy in the returned structure.
func Gen(d *delta.Delta) *Generator {
	return &Generator{ctx: context.TODO(), delta: d, Policy: delim.DefaultPolicy}
}

// GenContext is like Gen but includes a context.
//
// The provided context is used both to halt generation between operations,
// and to kill any processes executed by a gen.Command embed converter.
func GenContext(ctx context.Context, d *delta.Delta) *Generator {
	if ctx == nil {
		panic("nil context")
	}
	return &Generator{ctx: ctx, delta: d, Policy: delim.DefaultPolicy}
}

// Start starts the generator but does not wait for it to complete.
func (g *Generator) Start() error {
	if g.waitdone != nil {
		return fmt.Errorf("already started")
	}
	if g.Stdout == nil {
		g.Stdout = ioutil.Discard
	}
	if g.Stderr == nil {
		g.Stderr = ioutil.Discard
	}
	if g.Stdout == g.Stderr {
		g.Stdout = &syncWriter{w: g.Stdout}
		g.Stderr = g.Stdout
	}
	stderrTo(g.Embeds, g.Stderr)
	g.waitdone = make(chan error)
	go func() {
		err := g.gen()
		g.m.Lock()
		for _, p := range g.pipes {
			p.Close()
		}
		g.pipes = nil
		g.m.Unlock()
		g.waitdone <- err
	}()
	return nil
}

// stderrTo connects the embed commands in c that have no Stderr of their
// own to w.
func stderrTo(c gen.EmbedConverter, w io.Writer) {
	switch c := c.(type) {
	case *gen.Command:
		if c.Stderr == nil {
			c.Stderr = w
		}
	case gen.Chain:
		for _, conv := range c {
			stderrTo(conv, w)
		}
	}
}

// Wait waits for the generator to complete and finish copying to
// Stdout. It is an error to call Wait before Start has been called.
func (g *Generator) Wait() error {
	if g.waitdone == nil {
		return fmt.Errorf("not started")
	}
	err := <-g.waitdone
	close(g.waitdone)
	return err
}

// Run starts the generator and waits for it to complete, returning
// any errors encountered.
func (g *Generator) Run() error {
	if err := g.Start(); err != nil {
		return err
	}
	return g.Wait()
}

// StdoutPipe returns a pipe that is connected to the generator's
// standard output. It is closed once generation ends.
//
// Wait must not be called until all reads from the pipe have completed.
// For the same reason, it is invalid to call Run when using StdoutPipe.
func (g *Generator) StdoutPipe() (io.Reader, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	pr, pw := io.Pipe()
	g.Stdout = pw
	g.pipes = append(g.pipes, pw)
	return pr, nil
}

// StderrPipe returns a pipe that is connected to the generator's
// standard error.
//
// Wait must not be called until all reads from the pipe have completed.
// For the same reason, it is invalid to call Run when using StderrPipe.
func (g *Generator) StderrPipe() (io.Reader, error) {
	if g.Stderr != nil {
		return nil, fmt.Errorf("Stderr already set")
	}
	pr, pw := io.Pipe()
	g.Stderr = pw
	g.pipes = append(g.pipes, pw)
	return pr, nil
}

// Output runs the generator and returns its standard output.
func (g *Generator) Output() ([]byte, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	var stdout bytes.Buffer
	g.Stdout = &stdout
	err := g.Run()
	return stdout.Bytes(), err
}

// CombinedOutput runs the generator and returns its combined
// standard output and standard error.
func (g *Generator) CombinedOutput() ([]byte, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	if g.Stderr != nil {
		return nil, fmt.Errorf("Stderr already set")
	}
	var b bytes.Buffer
	g.Stdout = &b
	g.Stderr = &b
	err := g.Run()
	return b.Bytes(), err
}

func (g *Generator) gen() error {
	cw := &stickyCountWriter{0, nil, g.Stdout}
	s := newSerializer(g.ctx, g.delta, WithPolicy(g.Policy), WithEmbeds(g.Embeds), WithLogger(g.Logger))
	err := s.run()
	g.Warnings = s.warnings
	if err != nil {
		return err
	}
	io.WriteString(cw, s.output())
	return cw.err
}
