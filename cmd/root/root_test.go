package root_test

import (
	"testing"

	"openmuni/fiscalcast/cmd/root"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fiscalcast", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "municipal fund forecasting")
	assert.Contains(t, root.Cmd.Long, "debt decisions")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRun)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()

	scenarioFlag := root.Cmd.PersistentFlags().Lookup("scenario")
	if assert.NotNil(t, scenarioFlag) {
		assert.Equal(t, "s", scenarioFlag.Shorthand)
	}

	outputFlag := root.Cmd.PersistentFlags().Lookup("output")
	if assert.NotNil(t, outputFlag) {
		assert.Equal(t, "o", outputFlag.Shorthand)
	}

	formatFlag := root.Cmd.PersistentFlags().Lookup("format")
	if assert.NotNil(t, formatFlag) {
		assert.Equal(t, "f", formatFlag.Shorthand)
	}

	for _, name := range []string{"funds", "transactions", "instruments", "as-of"} {
		assert.NotNil(t, root.Cmd.PersistentFlags().Lookup(name), name)
	}
}
