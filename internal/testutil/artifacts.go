package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	pt "github.com/turtacn/MolProp-Intelligence/internal/intelligence/prop_transformer"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// TinyArchitecture keeps the QM9 output layout with a 64-bit fingerprint and
// a one-layer, width-8 encoder so tests run in microseconds.
var TinyArchitecture = pt.ArtifactDescriptor{
	InputWidth:       64,
	OutputWidth:      19,
	LayerCount:       1,
	ModelWidth:       8,
	FeedForwardWidth: 16,
	HeadWidth:        16,
	Heads:            2,
}

// TinyArtifacts returns the deterministic demo set for TinyArchitecture.
func TinyArtifacts(tb testing.TB, seed int64) *prediction.ArtifactSet {
	tb.Helper()
	set, err := prediction.NewDemoArtifactSet(TinyArchitecture, seed)
	require.NoError(tb, err)
	return set
}

// TinyContext loads a validated inference context from TinyArtifacts.
func TinyContext(tb testing.TB, seed int64) *prediction.InferenceContext {
	tb.Helper()
	src := NewMemorySource(TinyArtifacts(tb, seed))
	ictx, err := prediction.LoadContext(context.Background(), src, prediction.LoadOptions{ModelName: "tiny"})
	require.NoError(tb, err)
	return ictx
}

// MemorySource is an in-memory prediction.ArtifactSource.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string][]byte
	// Err, when set, is returned by every Open.
	Err error
}

// NewMemorySource encodes set under the default artifact names. A nil set
// yields an empty source.
func NewMemorySource(set *prediction.ArtifactSet) *MemorySource {
	s := &MemorySource{files: map[string][]byte{}}
	if set != nil {
		files, err := set.Files(prediction.DefaultArtifactNames())
		if err != nil {
			panic(err)
		}
		s.files = files
	}
	return s
}

// Put replaces or adds an artifact.
func (s *MemorySource) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
}

// Delete removes an artifact.
func (s *MemorySource) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
}

// Open implements prediction.ArtifactSource.
func (s *MemorySource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "artifact not found").WithDetail(name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ prediction.ArtifactSource = (*MemorySource)(nil)

//Personal.AI order the ending
