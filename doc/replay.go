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

package doc

import "akhil.cc/deltadoc/recognize"

// Replay enters markup into an empty document watched by a Recognizer. With
// paste set the markup arrives as one change, otherwise it is typed rune by
// rune. The Recognizer's deferred work runs through the document's scheduler.
func Replay(markup string, paste bool, opts ...recognize.Option) *Document {
	d := New(nil)
	opts = append([]recognize.Option{recognize.WithScheduler(d.Schedule)}, opts...)
	r := recognize.New(d, opts...)
	d.OnChange(r.HandleTextChange)
	if paste {
		d.Paste(markup)
	} else {
		d.Type(markup)
	}
	d.Flush()
	return d
}
