package cli

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"replay", "inspect"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestReplayCommandFlags(t *testing.T) {
	cmd := newReplayCommand()
	assert.NotNil(t, cmd.Flags().Lookup("journal"))
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "invalid argument",
			err:      errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("bad input"),
			expected: 2,
		},
		{
			name:     "not found",
			err:      errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("missing"),
			expected: 3,
		},
		{
			name:     "internal",
			err:      errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("broken"),
			expected: 4,
		},
		{
			name:     "unavailable",
			err:      errbuilder.New().WithCode(errbuilder.CodeUnavailable).WithMsg("database unreachable"),
			expected: 4,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeForError(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "builder message",
			err:      errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("store unavailable"),
			expected: "store unavailable",
		},
		{
			name:     "plain error falls back",
			err:      errors.New("boom"),
			expected: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorMessage(tt.err))
		})
	}
}

func TestLoadConfigRequiresProjectName(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := loadConfig()
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	viper.Set("project_name", "game")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "game", cfg.ProjectName)
}
