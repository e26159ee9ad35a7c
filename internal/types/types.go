package types

// SceneRecord is one packed RealEstate10K scene. Images[i] holds the undecoded
// file whose name is Timestamps[i].
type SceneRecord struct {
	Key        string      `cbor:"key" json:"key"`
	URL        string      `cbor:"url" json:"url"`
	Timestamps []int64     `cbor:"timestamps" json:"timestamps"`
	Cameras    [][]float32 `cbor:"cameras" json:"cameras"`
	Images     [][]byte    `cbor:"images" json:"-"`
}

type Metadata struct {
	URL        string
	Timestamps []int64
	Cameras    [][]float32
}

type EvaluationEntry struct {
	Context []int `json:"context"`
	Target  []int `json:"target"`
}
