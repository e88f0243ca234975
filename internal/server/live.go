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

package server

import (
	"net/http"

	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/doc"
	"akhil.cc/deltadoc/gen"
	"akhil.cc/deltadoc/gen/asciidoc"
	"akhil.cc/deltadoc/recognize"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Client messages of a live session:
//
//	{"type":"type","text":"*bold*"}  keystrokes at the cursor
//	{"type":"paste","text":"..."}    one paste at the cursor
//	{"type":"enter"}
//	{"type":"select","index":3}
//	{"type":"blur"}
type clientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Index int    `json:"index,omitempty"`
}

// Every client message is answered with the document after the edit, or an
// error.
type serverMessage struct {
	Type      string       `json:"type"`
	Delta     *delta.Delta `json:"delta,omitempty"`
	Selection int          `json:"selection"`
	Focused   bool         `json:"focused"`
	AsciiDoc  string       `json:"asciidoc"`
	Error     string       `json:"error,omitempty"`
}

type session struct {
	s    *Server
	ws   *websocket.Conn
	doc  *doc.Document
	send chan serverMessage
}

func (s *Server) live(c *gin.Context) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
		return s.allowed(r.Header.Get("Origin"))
	}}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Printf("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	defer conn.Close()

	ss := &session{s: s, ws: conn, doc: doc.New(nil), send: make(chan serverMessage, 32)}
	r := recognize.New(ss.doc,
		recognize.WithScheduler(ss.doc.Schedule),
		recognize.WithPolicy(s.Config.Policy()),
		recognize.WithLogger(s.Logger))
	ss.doc.OnChange(r.HandleTextChange)

	done := make(chan struct{})
	go func() {
		ss.writeLoop()
		close(done)
	}()
	ss.send <- ss.snapshot()
	ss.readLoop()
	<-done
}

func (ss *session) snapshot() serverMessage {
	contents := ss.doc.Contents()
	out, _ := asciidoc.Convert(contents,
		asciidoc.WithPolicy(ss.s.Config.Policy()), asciidoc.WithEmbeds(gen.Mention))
	sel, focused := ss.doc.Selection()
	return serverMessage{Type: "document", Delta: contents, Selection: sel, Focused: focused, AsciiDoc: out}
}

func (ss *session) readLoop() {
	defer close(ss.send)
	for {
		var m clientMessage
		if err := ss.ws.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ss.s.Logger.Printf("read json error: %v", err)
			}
			return
		}
		switch m.Type {
		case "type":
			ss.doc.Type(m.Text)
		case "paste":
			ss.doc.Paste(m.Text)
		case "enter":
			ss.doc.Enter()
		case "select":
			ss.doc.SetSelection(m.Index)
		case "blur":
			ss.doc.Blur()
		default:
			ss.send <- serverMessage{Type: "error", Error: "unknown message type " + m.Type}
			continue
		}
		ss.send <- ss.snapshot()
	}
}

func (ss *session) writeLoop() {
	for msg := range ss.send {
		if err := ss.ws.WriteJSON(msg); err != nil {
			ss.s.Logger.Printf("write json error: %v", err)
		}
	}
}
