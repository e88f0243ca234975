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

package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"akhil.cc/deltadoc/delta"
	sq "github.com/kballard/go-shellquote"
)

// ErrUnsupported is returned by an EmbedConverter that has nothing to say
// about an embed.
var ErrUnsupported = errors.New("unsupported embed")

// EmbedConverter writes the markup equivalent of a custom embed into w.
// It is the serializer's extension point for embeds the core does not know.
type EmbedConverter interface {
	Convert(ctx context.Context, e delta.Embed, w io.Writer) error
}

// EmbedFunc adapts a function to an EmbedConverter.
type EmbedFunc func(ctx context.Context, e delta.Embed, w io.Writer) error

func (f EmbedFunc) Convert(ctx context.Context, e delta.Embed, w io.Writer) error {
	return f(ctx, e, w)
}

// Chain tries each converter in turn until one does not return ErrUnsupported.
type Chain []EmbedConverter

func (c Chain) Convert(ctx context.Context, e delta.Embed, w io.Writer) error {
	for _, conv := range c {
		if conv == nil {
			continue
		}
		err := conv.Convert(ctx, e, w)
		if !errors.Is(err, ErrUnsupported) {
			return err
		}
	}
	return ErrUnsupported
}

// Mention writes the id of a {"mention":{"id":...}} embed.
var Mention EmbedFunc = func(_ context.Context, e delta.Embed, w io.Writer) error {
	if e.Type != "mention" {
		return ErrUnsupported
	}
	var m struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Value, &m); err != nil || m.ID == "" {
		return ErrUnsupported
	}
	_, err := io.WriteString(w, m.ID)
	return err
}

// Command holds the cancellation context, command line and Stderr stream
// for an external process that converts custom embeds.
type Command struct {
	Ctx    context.Context
	Line   string
	Stderr io.Writer
}

// Convert runs the command with the embed as JSON on its standard input,
// {"type":..., "value":...}, waiting to finish writing its Stdout into w and
// Stderr into the command's Stderr. Empty output means the command does not
// support the embed.
func (c *Command) Convert(ctx context.Context, e delta.Embed, w io.Writer) error {
	words, err := sq.Split(c.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("No valid commands: '%q'", c.Line)
	}
	if ctx == nil {
		ctx = c.Ctx
	}
	var cmd *exec.Cmd
	if ctx == nil {
		cmd = exec.Command(words[0], words[1:]...)
	} else {
		cmd = exec.CommandContext(ctx, words[0], words[1:]...)
	}
	in, err := json.Marshal(struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}{e.Type, e.Value})
	if err != nil {
		return err
	}
	cmd.Stdin = bytes.NewReader(in)
	if w == nil && c.Stderr == nil {
		return fmt.Errorf("no output writer for embed %q", e.Type)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	if err := cmd.Run(); err != nil {
		return err
	}
	if out.Len() == 0 {
		return ErrUnsupported
	}
	if w == nil {
		return nil
	}
	_, err = w.Write(bytes.TrimRight(out.Bytes(), "\n"))
	return err
}
