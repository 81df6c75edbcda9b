// Command codefill-extract prints the verification code found in message bodies
//
//	codefill-extract [-all] [-rules pack.json] [file ...]
//
// With no files the body is read from stdin. Each file is one body
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"codefill/internal/core/extract"
	"codefill/internal/core/normalize"
	"codefill/internal/core/rulepack"
	"codefill/internal/core/version"
	"codefill/internal/platform/logger"
)

type result struct {
	Source    string              `json:"source"`
	Found     bool                `json:"found"`
	Candidate *extract.Candidate  `json:"candidate,omitempty"`
	All       []extract.Candidate `json:"all,omitempty"`
}

func main() {
	var (
		all         = flag.Bool("all", false, "also list every rule that matches")
		rules       = flag.String("rules", "", "rule pack JSON to use instead of the built in one")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version.Info("codefill-extract"))
		return
	}
	// results own stdout
	logger.Init(logger.ForBinary("codefill-extract", os.Stderr))
	l := logger.Get()

	ex := extract.Default()
	if *rules != "" {
		data, err := os.ReadFile(*rules)
		if err != nil {
			l.Fatal().Err(err).Msg("read rule pack")
		}
		p, err := rulepack.Parse(data)
		if err != nil {
			l.Fatal().Err(err).Str("path", *rules).Msg("parse rule pack")
		}
		ex = extract.New(p)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	misses := 0

	run := func(name string, r io.Reader) {
		raw, err := io.ReadAll(r)
		if err != nil {
			l.Fatal().Err(err).Str("source", name).Msg("read body")
		}
		body := normalize.Body(string(raw))
		res := result{Source: name}
		if c, ok := ex.Extract(body); ok {
			res.Found, res.Candidate = true, &c
		} else {
			misses++
		}
		if *all {
			res.All = ex.All(body)
		}
		if err := enc.Encode(res); err != nil {
			l.Fatal().Err(err).Msg("write result")
		}
	}

	if flag.NArg() == 0 {
		run("-", os.Stdin)
	}
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			l.Fatal().Err(err).Msg("open body")
		}
		run(path, f)
		_ = f.Close()
	}

	// exit 1 when any body had no code, like grep
	if misses > 0 {
		os.Exit(1)
	}
}
