package bootstrap

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskYesNo(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		autoYes bool
		want    bool
		wantOut string
	}{
		{name: "Auto yes echoes answer", autoYes: true, want: true, wantOut: "Update? [y/N] y\n"},
		{name: "Lowercase y", input: "y\n", want: true, wantOut: "Update? [y/N] "},
		{name: "Uppercase Y with spaces", input: "  Y \n", want: true, wantOut: "Update? [y/N] "},
		{name: "Yes spelled out is not y", input: "yes\n", want: false, wantOut: "Update? [y/N] "},
		{name: "Empty line defaults to no", input: "\n", want: false, wantOut: "Update? [y/N] "},
		{name: "End of input is no", input: "", want: false, wantOut: "Update? [y/N] "},
		{name: "Answer without newline", input: "y", want: true, wantOut: "Update? [y/N] "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &Prompter{
				AutoYes: tc.autoYes,
				In:      bufio.NewReader(strings.NewReader(tc.input)),
				Out:     &out,
			}

			got, err := p.AskYesNo("Update?")

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantOut, out.String())
		})
	}
}
