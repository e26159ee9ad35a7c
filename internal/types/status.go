package types

const (
	EventSceneAdded = "scene_added"
	EventChunkSaved = "chunk_saved"
	EventStageDone  = "stage_done"
)

type PackEvent struct {
	Type   string `json:"type"`
	Stage  string `json:"stage"`
	Key    string `json:"key,omitempty"`
	Chunk  string `json:"chunk,omitempty"`
	Scenes int    `json:"scenes,omitempty"`
	Bytes  int64  `json:"bytes"`
}

type PackStatus struct {
	Stage         string `json:"stage"`
	ScenesDone    int    `json:"scenes_done"`
	ScenesTotal   int    `json:"scenes_total"`
	ChunksWritten int    `json:"chunks_written"`
	BytesPacked   int64  `json:"bytes_packed"`
	Done          bool   `json:"done"`
}
