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

// Package server exposes the converter and the recognizer over HTTP.
package server // import "akhil.cc/deltadoc/internal/server"

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/doc"
	"akhil.cc/deltadoc/gen"
	"akhil.cc/deltadoc/gen/asciidoc"
	"akhil.cc/deltadoc/internal/cache"
	"akhil.cc/deltadoc/internal/config"
	"akhil.cc/deltadoc/recognize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	MIMEAsciiDoc   = "text/asciidoc"
	WarningsHeader = "X-Deltadoc-Warnings"
)

// Server routes:
//
//	GET  /healthz
//	POST /v1/asciidoc  delta JSON in, AsciiDoc out
//	POST /v1/type      {"markup": ..., "mode": "type"|"paste"} in, recognized delta and its AsciiDoc out
//	GET  /v1/live      websocket editing session
type Server struct {
	Config *config.Config
	Logger *log.Logger
	Cache  cache.Cache
	engine *gin.Engine
}

type Option func(*Server)

// WithCache stores /v1/asciidoc results in c.
func WithCache(c cache.Cache) Option { return func(s *Server) { s.Cache = c } }

// New builds the router for cfg. A nil logger discards.
func New(cfg *config.Config, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(s.cors()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	v1 := r.Group("/v1")
	v1.POST("/asciidoc", s.asciidoc)
	v1.POST("/type", s.typeMarkup)
	v1.GET("/live", s.live)
	s.engine = r
	return s
}

func (s *Server) cors() cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", WarningsHeader},
		MaxAge:        12 * time.Hour,
	}
	origins := s.Config.Serve.Origins
	if len(origins) == 0 || contains(origins, "*") {
		c.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// allowed reports whether a browser at origin may use the service.
func (s *Server) allowed(origin string) bool {
	origins := s.Config.Serve.Origins
	return origin == "" || len(origins) == 0 || contains(origins, "*") || contains(origins, origin)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured port.
func (s *Server) Run() error {
	s.Logger.Printf("listening on :%d", s.Config.Serve.Port)
	return s.engine.Run(":" + strconv.Itoa(s.Config.Serve.Port))
}

func (s *Server) embeds(ctx context.Context) gen.EmbedConverter {
	chain := gen.Chain{gen.Mention}
	if s.Config.Embed.Command != "" {
		chain = append(chain, &gen.Command{Ctx: ctx, Line: s.Config.Embed.Command, Stderr: s.Logger.Writer()})
	}
	return chain
}

func messages(ws []asciidoc.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Error())
	}
	return out
}

var errInvalidDelta = errors.New("invalid delta")

type rendered struct {
	AsciiDoc string   `json:"asciidoc"`
	Warnings []string `json:"warnings"`
}

func (s *Server) asciidoc(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body", "details": err.Error()})
		return
	}
	res, err := s.render(c.Request.Context(), body)
	switch {
	case errors.Is(err, errInvalidDelta):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header(WarningsHeader, strconv.Itoa(len(res.Warnings)))
	switch c.NegotiateFormat(MIMEAsciiDoc, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(http.StatusOK, res)
	default:
		c.Data(http.StatusOK, MIMEAsciiDoc+"; charset=utf-8", []byte(res.AsciiDoc))
	}
}

// render converts a delta body, going through the cache when there is one.
// Cache failures are logged and otherwise ignored.
func (s *Server) render(ctx context.Context, body []byte) (*rendered, error) {
	var key string
	if s.Cache != nil {
		key = cache.Key(body, cache.Settings(s.Config.Policy().Schemes), s.Config.Embed.Command)
		b, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			s.Logger.Printf("cache: %v", err)
		}
		var res rendered
		if ok && json.Unmarshal(b, &res) == nil {
			return &res, nil
		}
	}
	d, err := delta.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidDelta, err)
	}
	if t := s.Config.Embed.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	g := asciidoc.GenContext(ctx, d)
	g.Policy = s.Config.Policy()
	g.Embeds = s.embeds(ctx)
	g.Logger = s.Logger
	out, err := g.Output()
	if err != nil {
		return nil, err
	}
	res := &rendered{AsciiDoc: string(out), Warnings: messages(g.Warnings)}
	if s.Cache != nil {
		b, _ := json.Marshal(res)
		if err := s.Cache.Set(ctx, key, b, s.Config.Cache.TTL); err != nil {
			s.Logger.Printf("cache: %v", err)
		}
	}
	return res, nil
}

type typeReq struct {
	Markup string `json:"markup" binding:"required"`
	Mode   string `json:"mode"`
}

func (s *Server) typeMarkup(c *gin.Context) {
	var req typeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	mode := strings.ToLower(req.Mode)
	if mode == "" {
		mode = s.Config.Recognize.Mode
	}
	if mode != config.ModeType && mode != config.ModePaste {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode " + strconv.Quote(req.Mode)})
		return
	}
	policy := s.Config.Policy()
	d := doc.Replay(req.Markup, mode == config.ModePaste,
		recognize.WithPolicy(policy), recognize.WithLogger(s.Logger))
	contents := d.Contents()
	out, warns := asciidoc.Convert(contents,
		asciidoc.WithPolicy(policy), asciidoc.WithEmbeds(gen.Mention), asciidoc.WithLogger(s.Logger))
	c.Header(WarningsHeader, strconv.Itoa(len(warns)))
	c.JSON(http.StatusOK, gin.H{
		"delta":    contents,
		"asciidoc": out,
		"warnings": messages(warns),
	})
}
