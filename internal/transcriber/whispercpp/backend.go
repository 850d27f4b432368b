// Package whispercpp runs whisper.cpp in process through its Go bindings.
// Build with -tags whispercpp and libwhisper available to cgo; without the
// tag Load reports that support was not compiled in.
package whispercpp

type Config struct {
	ModelPath string
	Language  string // empty for auto detect
	Threads   int    // 0 for the library default
}

type Backend struct {
	config Config
}

func New(config Config) *Backend {
	return &Backend{config: config}
}

func (b *Backend) Name() string { return "whispercpp" }
