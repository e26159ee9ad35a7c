// Package synth writes small synthetic RealEstate10K trees for tests and dry
// runs of the packer.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"gsdataset-go/internal/types"
)

// NewScene builds a scene whose camera orbits the origin. Each image is
// imageSize random bytes.
func NewScene(rng *rand.Rand, key string, frames, imageSize int) types.SceneRecord {
	rec := types.SceneRecord{
		Key: key,
		URL: "https://www.youtube.com/watch?v=" + key,
	}
	start := int64(rng.IntN(1_000_000)) * 1000
	for i := 0; i < frames; i++ {
		rec.Timestamps = append(rec.Timestamps, start+int64(i)*33_366)
		rec.Cameras = append(rec.Cameras, orbitCamera(2*math.Pi*float64(i)/float64(frames)))

		img := make([]byte, imageSize)
		for j := range img {
			img[j] = byte(rng.UintN(256))
		}
		rec.Images = append(rec.Images, img)
	}
	return rec
}

// orbitCamera returns intrinsics fx fy cx cy, two zeros, then a row-major
// 3x4 world-to-camera matrix.
func orbitCamera(theta float64) []float32 {
	c, s := float32(math.Cos(theta)), float32(math.Sin(theta))
	return []float32{
		0.5, 0.9, 0.5, 0.5, 0, 0,
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, -2,
	}
}

// MetadataText renders rec in the RealEstate10K camera file format.
func MetadataText(rec types.SceneRecord) string {
	var b strings.Builder
	b.WriteString(rec.URL)
	b.WriteByte('\n')
	for i, ts := range rec.Timestamps {
		b.WriteString(strconv.FormatInt(ts, 10))
		for _, v := range rec.Cameras[i] {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteScene lays rec out as <imageRoot>/<stage>/<key>/<timestamp>.png and
// <metadataRoot>/<stage>/<key>.txt.
func WriteScene(fs afero.Fs, imageRoot, metadataRoot, stage string, rec types.SceneRecord) error {
	sceneDir := filepath.Join(imageRoot, stage, rec.Key)
	if err := fs.MkdirAll(sceneDir, 0o755); err != nil {
		return err
	}
	for i, ts := range rec.Timestamps {
		name := filepath.Join(sceneDir, fmt.Sprintf("%d.png", ts))
		if err := afero.WriteFile(fs, name, rec.Images[i], 0o644); err != nil {
			return err
		}
	}
	metaDir := filepath.Join(metadataRoot, stage)
	if err := fs.MkdirAll(metaDir, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(metaDir, rec.Key+".txt"), []byte(MetadataText(rec)), 0o644)
}

// WriteTree writes scenes named <stage>_<i> for every stage and returns them
// keyed by stage.
func WriteTree(fs afero.Fs, imageRoot, metadataRoot string, stages []string, scenes, frames, imageSize int, seed uint64) (map[string][]types.SceneRecord, error) {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make(map[string][]types.SceneRecord, len(stages))
	for _, stage := range stages {
		for i := 0; i < scenes; i++ {
			rec := NewScene(rng, fmt.Sprintf("%s_%04d", stage, i), frames, imageSize)
			if err := WriteScene(fs, imageRoot, metadataRoot, stage, rec); err != nil {
				return nil, err
			}
			out[stage] = append(out[stage], rec)
		}
	}
	return out, nil
}
