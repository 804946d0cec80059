package app

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "version")
	assert.Contains(t, names, "migrate")
}

func TestServeRequiresConfigFlag(t *testing.T) {
	t.Parallel()

	flag := serveCmd.Flags().Lookup("config")
	require.NotNil(t, flag)

	// cobra records required flags as an annotation on the flag itself.
	assert.Contains(t, flag.Annotations, cobra.BashCompOneRequiredFlag)
}

func TestMigratePersistentFlags(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, migrateCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, migrateCmd.PersistentFlags().Lookup("yes"))
	assert.NotNil(t, migrateDownCmd.Flags().Lookup("num-steps"))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "short yes", input: "y\n", want: true},
		{name: "no", input: "no\n", want: false},
		{name: "anything else", input: "maybe\n", want: false},
		{name: "empty input", input: "\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmInput = strings.NewReader(tt.input)
			t.Cleanup(func() { confirmInput = os.Stdin })

			assert.Equal(t, tt.want, confirm("proceed?"))
		})
	}
}

func TestRevertPrompt(t *testing.T) {
	t.Parallel()

	assert.Contains(t, revertPrompt(0), "ALL migrations")
	assert.Contains(t, revertPrompt(3), "3 migration(s)")
}
