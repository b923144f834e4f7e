// Package transform renders a feed through an XSLT stylesheet.
//
// No XSLT engine is available as a Go library, so the work is delegated to
// an external processor, xsltproc by default.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// DefaultProcessor is the executable used when Command.Path is empty.
const DefaultProcessor = "xsltproc"

// ErrProcessorNotFound is returned when the processor executable cannot be
// found on PATH.
var ErrProcessorNotFound = errors.New("transform: XSLT processor not found")

// Transformer applies a stylesheet to a document.
type Transformer interface {
	Transform(ctx context.Context, stylesheet string, doc io.Reader, out io.Writer) error
}

// Command runs an external processor as
//
//	<Path> <Args...> <stylesheet> -
//
// with the document on standard input, which is how xsltproc reads it.
type Command struct {
	Path string
	Args []string
}

func (c Command) name() string {
	if c.Path == "" {
		return DefaultProcessor
	}
	return c.Path
}

// Transform runs the processor and copies its output to out. The process
// is killed if ctx is cancelled.
func (c Command) Transform(ctx context.Context, stylesheet string, doc io.Reader, out io.Writer) error {
	path, err := exec.LookPath(c.name())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProcessorNotFound, c.name())
	}

	args := append(append([]string(nil), c.Args...), stylesheet, "-")
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = doc
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("transform: %s: %w: %s", c.name(), err, msg)
		}
		return fmt.Errorf("transform: %s: %w", c.name(), err)
	}
	return nil
}
