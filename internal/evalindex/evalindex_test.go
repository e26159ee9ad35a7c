package evalindex

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTxt(t *testing.T, fs afero.Fs, path string, frames int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("https://www.youtube.com/watch?v=x\n")
	for i := 0; i < frames; i++ {
		fmt.Fprintf(&b, "%d 0.5 0.5 0.5 0.5 0 0 1 0 0 0 0 1 0 0 0 0 1 0\n", 1000*(i+1))
	}
	require.NoError(t, afero.WriteFile(fs, path, []byte(b.String()), 0o644))
}

func fixture(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeTxt(t, fs, "/meta/scene_a.txt", 10)
	writeTxt(t, fs, "/meta/scene_b.txt", 3)
	writeTxt(t, fs, "/meta/scene_c.txt", 4)
	writeTxt(t, fs, "/meta/scene_d.txt", 20)
	require.NoError(t, afero.WriteFile(fs, "/meta/scene_e.json", []byte(`{"frames":[{},{},{},{},{},{}]}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/meta/README.md", []byte("not metadata"), 0o644))
	return fs
}

func TestGenerateSkipsShortScenes(t *testing.T) {
	fs := fixture(t)
	index, err := Generate(fs, "/meta", Options{NumContext: 1, NumTarget: 3, Seed: 42}, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, index, 4)
	assert.NotContains(t, index, "scene_b")
	frames := map[string]int{"scene_a": 10, "scene_c": 4, "scene_d": 20, "scene_e": 6}
	for scene, entry := range index {
		require.Len(t, entry.Context, 1, scene)
		require.Len(t, entry.Target, 3, scene)
		seen := map[int]bool{}
		for _, v := range append(append([]int{}, entry.Context...), entry.Target...) {
			assert.False(t, seen[v], "duplicate view %d in %s", v, scene)
			seen[v] = true
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, frames[scene])
		}
	}
	// every frame of a four-frame scene is used
	assert.Len(t, append(index["scene_c"].Context, index["scene_c"].Target...), 4)
}

func TestGenerateDeterministic(t *testing.T) {
	opts := Options{NumContext: 2, NumTarget: 2, Seed: 7}
	first, err := Generate(fixture(t), "/meta", opts, zap.NewNop())
	require.NoError(t, err)
	second, err := Generate(fixture(t), "/meta", opts, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fs := afero.NewMemMapFs()
	require.NoError(t, Write(fs, "/out/a.json", first))
	require.NoError(t, Write(fs, "/out/b.json", second))
	a, _ := afero.ReadFile(fs, "/out/a.json")
	b, _ := afero.ReadFile(fs, "/out/b.json")
	assert.Equal(t, a, b)
}

func TestWriteFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	index := Index{
		"zeta":  {Context: []int{4}, Target: []int{1, 2}},
		"alpha": {Context: []int{0}, Target: []int{3}},
	}
	require.NoError(t, Write(fs, "/deep/dir/eval.json", index))

	data, err := afero.ReadFile(fs, "/deep/dir/eval.json")
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasSuffix(text, "}\n"))
	assert.Less(t, strings.Index(text, `"alpha"`), strings.Index(text, `"zeta"`))
	assert.Contains(t, text, "\n  \"alpha\": {\n    \"context\": [")

	var back Index
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, index, back)

	exists, _ := afero.Exists(fs, "/deep/dir/eval.json.tmp")
	assert.False(t, exists)
}

func TestWriteEmptyIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Write(fs, "/eval.json", nil))
	data, _ := afero.ReadFile(fs, "/eval.json")
	assert.Equal(t, "{}\n", string(data))
}

func TestGenerateRejectsBadCounts(t *testing.T) {
	for _, opts := range []Options{
		{NumContext: -1, NumTarget: 3},
		{NumContext: 1, NumTarget: -2},
		{NumContext: 0, NumTarget: 0},
	} {
		_, err := Generate(fixture(t), "/meta", opts, zap.NewNop())
		assert.True(t, errors.Is(err, ErrInvalidCounts), "%+v", opts)
	}
}

func TestGenerateBadJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/meta/broken.json", []byte("{"), 0o644))
	_, err := Generate(fs, "/meta", Options{NumContext: 1, NumTarget: 1}, zap.NewNop())
	assert.Error(t, err)
}

func TestSampleProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("draws are distinct and in range", prop.ForAll(
		func(n, k int, seed uint64) bool {
			if k > n {
				k = n
			}
			rng := rand.New(rand.NewPCG(seed, 0))
			got := sample(rng, n, k)
			if len(got) != k {
				return false
			}
			seen := map[int]bool{}
			for _, v := range got {
				if v < 0 || v >= n || seen[v] {
					return false
				}
				seen[v] = true
			}
			return true
		},
		gen.IntRange(0, 200),
		gen.IntRange(0, 20),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
