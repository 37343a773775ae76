package persist

// Persister handles I/O for one output file of a specific state type.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister creates a persister with the given basename and codec.
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{
		basename: Basename(basename),
		codec:    codec,
	}
}

// Path returns the file the persister uses inside dir.
func (p *Persister[T]) Path(dir string) string {
	return Path(dir, p.basename, p.codec)
}

// Save writes state to dir.
func (p *Persister[T]) Save(dir string, state T) error {
	return SaveState(dir, p.basename, p.codec, state)
}

// Load reads the state stored in dir.
func (p *Persister[T]) Load(dir string) (T, error) {
	var state T

	err := LoadState(dir, p.basename, p.codec, &state)

	return state, err
}
