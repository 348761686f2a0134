package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "exact", input: "DELETE\n", want: true},
		{name: "windows line ending", input: "DELETE\r\n", want: true},
		{name: "no newline before eof", input: "DELETE", want: true},
		{name: "lowercase", input: "delete\n", want: false},
		{name: "leading space", input: " DELETE\n", want: false},
		{name: "trailing word", input: "DELETE please\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "eof", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}.Confirm(context.Background(), "bucket/logs/")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Type DELETE to continue: ")
			assert.Contains(t, out.String(), "bucket/logs/")
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestPromptConfirmer_ReadError(t *testing.T) {
	_, err := PromptConfirmer{In: failingReader{}, Out: &bytes.Buffer{}}.Confirm(context.Background(), "b/")
	assert.Error(t, err)
}
