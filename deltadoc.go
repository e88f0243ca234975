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

// This CLI utility converts Quill deltas to AsciiDoc, replays AsciiDoc
// markup through the live recognizer, and serves both over HTTP.
//
// Usage:
//   deltadoc [command]
//
// Available Commands:
//   asciidoc    AsciiDoc output generator for Quill deltas
//   help        Help about any command
//   serve       HTTP service for conversion and recognition
//   type        Replay AsciiDoc markup into a rich-text document
//
// Flags:
//   -c, --config   path to the configuration file
//   -h, --help     help for deltadoc
//
// Use "deltadoc [command] --help" for more information about a command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/doc"
	"akhil.cc/deltadoc/gen"
	"akhil.cc/deltadoc/gen/asciidoc"
	"akhil.cc/deltadoc/internal/cache"
	"akhil.cc/deltadoc/internal/config"
	"akhil.cc/deltadoc/internal/server"
	"akhil.cc/deltadoc/recognize"
	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func prefix(msg string, err error) error {
	return errors.New(msg + err.Error())
}

// files opens the input and output named on the command line, defaulting
// to standard input and standard output.
func files(args []string, outputfile string) (io.ReadCloser, io.WriteCloser, error) {
	var src io.ReadCloser = os.Stdin
	var err error
	if len(args) != 0 {
		src, err = os.Open(args[0])
		if err != nil {
			return nil, nil, err
		}
	}
	var out io.WriteCloser = os.Stdout
	if len(outputfile) != 0 {
		out, err = os.Create(outputfile)
		if err != nil {
			src.Close()
			return nil, nil, err
		}
	}
	return src, out, nil
}

func flagErrors(cmd *cobra.Command, msg string) {
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err != nil {
			return prefix(msg, err)
		}
		return nil
	})
}

func main() {
	logger := log.New(os.Stderr, "deltadoc: ", 0)
	var cfgfile string
	var cfg *config.Config
	rootCmd := &cobra.Command{
		Use:   "deltadoc [command]",
		Short: "AsciiDoc conversion and recognition for Quill deltas",
		Long: `This CLI utility converts Quill deltas to AsciiDoc, replays AsciiDoc
markup through the live recognizer, and serves both over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgfile)
			if err != nil {
				return prefix("(config) ", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgfile, "config", "c", "", "``path to the configuration file")

	var outputfile string
	var timeout time.Duration
	var embedcmd string
	prefixAdoc := "(AsciiDoc) "
	adocCmd := &cobra.Command{
		Use:   "asciidoc [input] [-o output]",
		Short: "AsciiDoc output generator for Quill deltas",
		Long: `This command takes a Quill delta in JSON and converts it to AsciiDoc.
Overlapping inline formats are closed and reopened so that the markup
nests. Operations that cannot be converted are reported on standard
error and skipped. Custom embeds are handed to the embed command, whose
line is split according to the Bourne shell's word-splitting rules.

If no input file is specified, input is read from
standard input. Similarly, if no output argument is
specified, output is written to standard output.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, out, err := files(args, outputfile)
			if err != nil {
				return prefix(prefixAdoc, err)
			}
			defer src.Close()
			defer out.Close()
			d, err := delta.Decode(src)
			if err != nil {
				return prefix(prefixAdoc, err)
			}
			if timeout < 0 && cfg.Embed.Timeout > 0 {
				timeout = cfg.Embed.Timeout
			}
			ctx := context.Background()
			if timeout > -1 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if len(embedcmd) == 0 {
				embedcmd = cfg.Embed.Command
			}
			embeds := gen.Chain{gen.Mention}
			if len(embedcmd) != 0 {
				embeds = append(embeds, &gen.Command{Ctx: ctx, Line: embedcmd})
			}
			g := asciidoc.GenContext(ctx, d)
			g.Stdout = out
			g.Stderr = os.Stderr
			g.Logger = logger
			g.Policy = cfg.Policy()
			g.Embeds = embeds
			if err := g.Run(); err != nil {
				return prefix(prefixAdoc, err)
			}
			return nil
		},
	}
	flagErrors(adocCmd, prefixAdoc)
	// pflag includes the argument type when it unquotes its usage.
	// To prevent this behavior we prefix the usage with backquotes ``.
	adocCmd.Flags().StringVarP(&outputfile, "output", "o", "", "``name of the output file")
	adocCmd.Flags().DurationVarP(&timeout, "timeout", "t", -1, "``timeout used to halt generator for long-running embed commands")
	adocCmd.Flags().StringVar(&embedcmd, "embed-cmd", "", "``command that converts custom embeds read as JSON from its standard input")
	// Set string version of default value to be zero-value to prevent it from being printed by FlagUsages.
	adocCmd.Flags().Lookup("timeout").DefValue = "0"

	var paste, asJSON bool
	prefixType := "(type) "
	typeCmd := &cobra.Command{
		Use:   "type [input] [-o output]",
		Short: "Replay AsciiDoc markup into a rich-text document",
		Long: `This command enters AsciiDoc markup into an empty rich-text document
watched by the recognizer, one keystroke at a time or as a single paste.
The resulting document is written back out as AsciiDoc, or as a Quill
delta in JSON.

If no input file is specified, input is read from
standard input. Similarly, if no output argument is
specified, output is written to standard output.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, out, err := files(args, outputfile)
			if err != nil {
				return prefix(prefixType, err)
			}
			defer src.Close()
			defer out.Close()
			markup, err := io.ReadAll(src)
			if err != nil {
				return prefix(prefixType, err)
			}
			if !cmd.Flags().Changed("paste") {
				paste = cfg.Recognize.Mode == config.ModePaste
			}
			policy := cfg.Policy()
			d := doc.Replay(string(markup), paste, recognize.WithPolicy(policy), recognize.WithLogger(logger))
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(d.Contents()); err != nil {
					return prefix(prefixType, err)
				}
				return nil
			}
			s, _ := asciidoc.Convert(d.Contents(), asciidoc.WithPolicy(policy), asciidoc.WithLogger(logger))
			if _, err := io.WriteString(out, s); err != nil {
				return prefix(prefixType, err)
			}
			return nil
		},
	}
	flagErrors(typeCmd, prefixType)
	typeCmd.Flags().StringVarP(&outputfile, "output", "o", "", "``name of the output file")
	typeCmd.Flags().BoolVar(&paste, "paste", false, "enter the markup as one paste instead of keystrokes")
	typeCmd.Flags().BoolVar(&asJSON, "json", false, "write the document as a delta in JSON")

	var port int
	prefixServe := "(serve) "
	serveCmd := &cobra.Command{
		Use:   "serve [--port port]",
		Short: "HTTP service for conversion and recognition",
		Long: `This command serves the AsciiDoc generator at POST /v1/asciidoc and
the recognizer at POST /v1/type and live editing sessions over a websocket
at GET /v1/live, with a health check at GET /healthz. Rendered AsciiDoc is
cached in Redis when cache.addr is configured.`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Serve.Port = port
			}
			var opts []server.Option
			if len(cfg.Cache.Addr) != 0 {
				rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
				defer rdb.Close()
				if err := rdb.Ping(context.Background()).Err(); err != nil {
					return prefix(prefixServe, err)
				}
				opts = append(opts, server.WithCache(cache.NewRedis(rdb, "deltadoc:")))
			}
			if err := server.New(cfg, logger, opts...).Run(); err != nil {
				return prefix(prefixServe, err)
			}
			return nil
		},
	}
	flagErrors(serveCmd, prefixServe)
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "``port to listen on")
	serveCmd.Flags().Lookup("port").DefValue = "8080"

	rootCmd.AddCommand(adocCmd, typeCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
