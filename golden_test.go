package hebi_test

import (
	"os"
	"testing"

	"github.com/hebi-lang/hebi"
	"github.com/stretchr/testify/require"
)

// TestDisassemblyGoldenFixtures compiles each testdata/*.hebi sample against
// its checked-in testdata/*.golden disassembly, guarding the textual
// disassembler format (mnemonic names, operand rendering, PC column) the
// `dis` CLI subcommand and bug reports both depend on staying stable within
// a single build.
func TestDisassemblyGoldenFixtures(t *testing.T) {
	cases := []string{"print_literal", "print_sum"}
	for _, name := range cases {
		name := name
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile("testdata/" + name + ".hebi")
			require.NoError(t, err)
			want, err := os.ReadFile("testdata/" + name + ".golden")
			require.NoError(t, err)

			prog, err := hebi.Compile(name, string(src))
			require.NoError(t, err)
			require.Equal(t, string(want), prog.Disassemble())
		})
	}
}
