// Package whisper is the catalog of ggml whisper models and the local store
// they are downloaded into.
package whisper

import (
	"github.com/dustin/go-humanize"
)

// ModelInfo holds metadata for a whisper model
type ModelInfo struct {
	ID           string // e.g. "base.en"
	Name         string // e.g. "Base English"
	Filename     string // e.g. "ggml-base.en.bin"
	SizeBytes    int64  // approximate, used when the server omits Content-Length
	Multilingual bool
}

// Size is the human readable download size.
func (m ModelInfo) Size() string {
	return humanize.Bytes(uint64(m.SizeBytes))
}

// models published at huggingface.co/ggerganov/whisper.cpp
var catalog = []ModelInfo{
	{ID: "tiny.en", Name: "Tiny English", Filename: "ggml-tiny.en.bin", SizeBytes: 75_000_000},
	{ID: "base.en", Name: "Base English", Filename: "ggml-base.en.bin", SizeBytes: 142_000_000},
	{ID: "small.en", Name: "Small English", Filename: "ggml-small.en.bin", SizeBytes: 466_000_000},
	{ID: "medium.en", Name: "Medium English", Filename: "ggml-medium.en.bin", SizeBytes: 1_500_000_000},

	{ID: "tiny", Name: "Tiny", Filename: "ggml-tiny.bin", SizeBytes: 75_000_000, Multilingual: true},
	{ID: "base", Name: "Base", Filename: "ggml-base.bin", SizeBytes: 142_000_000, Multilingual: true},
	{ID: "small", Name: "Small", Filename: "ggml-small.bin", SizeBytes: 466_000_000, Multilingual: true},
	{ID: "medium", Name: "Medium", Filename: "ggml-medium.bin", SizeBytes: 1_500_000_000, Multilingual: true},
	{ID: "large-v3-turbo", Name: "Large V3 Turbo", Filename: "ggml-large-v3-turbo.bin", SizeBytes: 1_600_000_000, Multilingual: true},
	{ID: "large-v3", Name: "Large V3", Filename: "ggml-large-v3.bin", SizeBytes: 3_100_000_000, Multilingual: true},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, m := range catalog {
		idx[m.ID] = i
	}
	return idx
}()

// GetModel returns nil for an unknown id.
func GetModel(id string) *ModelInfo {
	i, ok := catalogIndex[id]
	if !ok {
		return nil
	}
	info := catalog[i]
	return &info
}

func ListModels() []ModelInfo {
	return filter(func(ModelInfo) bool { return true })
}

func ListMultilingualModels() []ModelInfo {
	return filter(func(m ModelInfo) bool { return m.Multilingual })
}

func ListEnglishOnlyModels() []ModelInfo {
	return filter(func(m ModelInfo) bool { return !m.Multilingual })
}

func filter(keep func(ModelInfo) bool) []ModelInfo {
	var out []ModelInfo
	for _, m := range catalog {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
