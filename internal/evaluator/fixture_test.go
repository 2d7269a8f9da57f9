package evaluator

import (
	"bytes"
	"glang/internal/ast"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// fixtureExpectation is the "expect" section of a testdata program.
type fixtureExpectation struct {
	Value   *string `yaml:"value"`
	Kind    string  `yaml:"kind"`
	Message string  `yaml:"message"`
	Frames  int     `yaml:"frames"`
	Output  string  `yaml:"output"`
}

type fixture struct {
	Expect fixtureExpectation `yaml:"expect"`
}

func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path)
			require.NoError(t, err)

			var fx fixture
			require.NoError(t, yaml.Unmarshal(src, &fx))

			program, err := ast.DecodeBytes(src)
			require.NoError(t, err)

			var out bytes.Buffer
			e := testEvaluator(WithOutput(&out))
			result, exc := e.Run(program)

			expect := fx.Expect
			if expect.Kind != "" {
				require.NotNil(t, exc, "expected %s", expect.Kind)
				require.Equal(t, expect.Kind, string(exc.Kind))
				require.Equal(t, expect.Message, exc.Message)
				if expect.Frames > 0 {
					require.Len(t, exc.Traceback, expect.Frames)
				}
			} else {
				require.Nil(t, exc, "unexpected exception")
				require.NotNil(t, expect.Value, "fixture must expect a value or a kind")
				require.Equal(t, *expect.Value, result.Inspect())
			}
			require.Equal(t, expect.Output, out.String())
		})
	}
}
