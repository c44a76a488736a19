// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// Format selects an export encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatHTML, FormatDOT, FormatSVG, FormatPNG, FormatJSON, FormatYAML}

// graphvizBinary renders svg and png output.
const graphvizBinary = "dot"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		return FormatYAML, nil
	}
	if f == "gv" {
		return FormatDOT, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", sigilerr.New(sigilerr.CodeExportFormatInvalid,
		fmt.Sprintf("unknown export format %q", s), sigilerr.FieldFormat(s))
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", sigilerr.New(sigilerr.CodeExportFormatInvalid,
			"cannot infer export format from a path without extension", sigilerr.Field("path", path))
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

// needsGraphviz reports whether f is rendered by the external dot binary.
func (f Format) needsGraphviz() bool {
	return f == FormatSVG || f == FormatPNG
}

// CheckDependencies reports a missing-dependency error when f needs an
// external renderer that is not installed.
func CheckDependencies(f Format) error {
	if !f.needsGraphviz() {
		return nil
	}
	if _, err := exec.LookPath(graphvizBinary); err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeExportDependencyMissing,
			"rendering "+string(f)+" requires the graphviz dot executable on PATH",
			sigilerr.FieldFormat(string(f)))
	}
	return nil
}

// Render writes g to w in format f.
func Render(ctx context.Context, w io.Writer, g *Graph, f Format) error {
	if err := CheckDependencies(f); err != nil {
		return err
	}

	var err error
	switch f {
	case FormatHTML:
		err = writeHTML(w, g)
	case FormatDOT:
		err = writeDOT(w, g)
	case FormatSVG, FormatPNG:
		err = runGraphviz(ctx, w, g, f)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(g.Document())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(g.Document()); err == nil {
			err = enc.Close()
		}
	default:
		return sigilerr.New(sigilerr.CodeExportFormatInvalid,
			fmt.Sprintf("unknown export format %q", f), sigilerr.FieldFormat(string(f)))
	}
	if err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeExportRenderFailure, "rendering graph", sigilerr.FieldFormat(string(f)))
	}
	return nil
}

func writeDOT(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph propgraph {")
	fmt.Fprintln(bw, "  node [shape=box, style=rounded];")
	for _, n := range g.Nodes {
		fmt.Fprintf(bw, "  %s [label=%s];\n", dotQuote(n.ID), dotQuote(n.Name+"\n("+n.Label+")"))
	}
	for _, r := range g.resolved() {
		fmt.Fprintf(bw, "  %s -> %s [label=%s];\n", dotQuote(r.SourceID), dotQuote(r.TargetID), dotQuote(r.Label))
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func runGraphviz(ctx context.Context, w io.Writer, g *Graph, f Format) error {
	var src bytes.Buffer
	if err := writeDOT(&src, g); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, graphvizBinary, "-T"+string(f))
	cmd.Stdin = &src
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}
