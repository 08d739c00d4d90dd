package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	name string
	uid  string
}

func (s *stubDecoder) Decode(data []byte) (*DecodeResult, error) { return &DecodeResult{}, nil }
func (s *stubDecoder) Name() string                              { return s.name }
func (s *stubDecoder) UID() string                               { return s.uid }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	d := &stubDecoder{name: "Stub", uid: "1.2.3.4"}
	r.Register(d)

	got, err := r.Get("Stub")
	require.NoError(t, err)
	assert.Same(t, d, got)

	got, err = r.GetByUID("1.2.3.4")
	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestRegistryNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrCodecNotFound)
	_, err = r.GetByUID("0.0")
	assert.ErrorIs(t, err, ErrCodecNotFound)
}

func TestRegistryListDeduplicates(t *testing.T) {
	r := NewRegistry()
	a := &stubDecoder{name: "A", uid: "1"}
	b := &stubDecoder{name: "B", uid: "2"}
	r.Register(a)
	r.Register(b)
	r.Register(a) // re-registration is idempotent

	list := r.List()
	assert.Len(t, list, 2)
}

func TestDefaultRegistryHasJPEG2000Entries(t *testing.T) {
	lossless, err := GetByUID("1.2.840.10008.1.2.4.90")
	require.NoError(t, err)
	assert.Equal(t, "JPEG 2000 Lossless", lossless.Name())

	lossy, err := GetByUID("1.2.840.10008.1.2.4.91")
	require.NoError(t, err)
	assert.Equal(t, "JPEG 2000", lossy.Name())

	_, err = Get("JPEG 2000 Lossless")
	assert.NoError(t, err)
}

func TestJPEG2000DecoderRejectsEmptyFrame(t *testing.T) {
	d := NewJPEG2000Lossless()
	_, err := d.Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
