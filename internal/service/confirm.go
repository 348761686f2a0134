package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConfirmationPhrase must be typed exactly to allow a live deletion.
const ConfirmationPhrase = "DELETE"

// Confirmer gates the irreversible part of a run.
type Confirmer interface {
	Confirm(ctx context.Context, target string) (bool, error)
}

// PromptConfirmer asks on Out and reads one line from In.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(_ context.Context, target string) (bool, error) {
	if _, err := fmt.Fprintf(p.Out, "About to permanently delete everything under %s\nType %s to continue: ", target, ConfirmationPhrase); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	// Only the line terminator is stripped; " DELETE" does not match.
	line = strings.TrimRight(line, "\r\n")
	return line == ConfirmationPhrase, nil
}
