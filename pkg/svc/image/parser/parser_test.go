package parser_test

import (
	"testing"

	"github.com/devantler-tech/kci/pkg/svc/image/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helpers = `# Helper images
FROM    busybox:1.36.1
FROM docker:27.5-cli
`

func TestImageFromDockerfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{name: "extra spaces", pattern: `FROM\s+(busybox:[^\s]+)`, want: "busybox:1.36.1"},
		{name: "second line", pattern: `FROM\s+(docker:[^\s]+)`, want: "docker:27.5-cli"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := parser.ImageFromDockerfile(helpers, testCase.pattern)

			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestImageFromDockerfile_NotDeclared(t *testing.T) {
	t.Parallel()

	_, err := parser.ImageFromDockerfile(helpers, `FROM\s+(alpine:[^\s]+)`)

	require.ErrorIs(t, err, parser.ErrImageNotDeclared)
}

func TestImageFromDockerfile_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := parser.ImageFromDockerfile(helpers, `FROM\s+(`)

	require.Error(t, err)
	require.NotErrorIs(t, err, parser.ErrImageNotDeclared)
}

func TestMustImageFromDockerfile_Panics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t,
		"failed to read alpine image from embedded Dockerfile: image not declared in dockerfile: FROM\\s+(alpine:[^\\s]+)",
		func() { parser.MustImageFromDockerfile(helpers, `FROM\s+(alpine:[^\s]+)`, "alpine") },
	)
}
