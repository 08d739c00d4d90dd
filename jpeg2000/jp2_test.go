package jpeg2000

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func jp2Box(boxType string, payload []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(8+len(payload)))
	buf.WriteString(boxType)
	buf.Write(payload)
	return buf.Bytes()
}

func TestIsJP2(t *testing.T) {
	if !isJP2(jp2Signature) {
		t.Error("signature box not recognized")
	}
	if isJP2(socMarker) {
		t.Error("raw codestream misidentified as JP2")
	}
	if isJP2(jp2Signature[:4]) {
		t.Error("short prefix misidentified as JP2")
	}
}

func TestUnwrapJP2FindsCodestream(t *testing.T) {
	body := []byte{0xFF, 0x4F, 0xFF, 0xD9}
	var file []byte
	file = append(file, jp2Signature...)
	file = append(file, jp2Box("ftyp", []byte("jp2 \x00\x00\x00\x00jp2 "))...)
	file = append(file, jp2Box("jp2h", []byte{0x00})...)
	file = append(file, jp2Box("jp2c", body)...)

	got, err := unwrapJP2(file)
	if err != nil {
		t.Fatalf("unwrapJP2: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("payload = % X, want % X", got, body)
	}
}

func TestUnwrapJP2ZeroSizeBox(t *testing.T) {
	// Size 0 means the box runs to the end of the stream.
	body := []byte{0xFF, 0x4F, 0xFF, 0xD9}
	var file []byte
	file = append(file, jp2Signature...)
	file = append(file, 0x00, 0x00, 0x00, 0x00)
	file = append(file, "jp2c"...)
	file = append(file, body...)

	got, err := unwrapJP2(file)
	if err != nil {
		t.Fatalf("unwrapJP2: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("payload = % X, want % X", got, body)
	}
}

func TestUnwrapJP2ExtendedLengthBox(t *testing.T) {
	body := []byte{0xFF, 0x4F, 0xFF, 0xD9}
	var file []byte
	file = append(file, jp2Signature...)
	file = append(file, 0x00, 0x00, 0x00, 0x01)
	file = append(file, "jp2c"...)
	var xl [8]byte
	binary.BigEndian.PutUint64(xl[:], uint64(16+len(body)))
	file = append(file, xl[:]...)
	file = append(file, body...)

	got, err := unwrapJP2(file)
	if err != nil {
		t.Fatalf("unwrapJP2: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("payload = % X, want % X", got, body)
	}
}

func TestUnwrapJP2Malformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"undersized box length", append(append([]byte{}, jp2Signature...), 0x00, 0x00, 0x00, 0x05, 'f', 't', 'y', 'p'), ErrInvalidMarker},
		{"box overruns stream", append(append([]byte{}, jp2Signature...), 0x00, 0x00, 0x01, 0x00, 'j', 'p', '2', 'c'), ErrTruncatedStream},
		{"truncated extended length", append(append([]byte{}, jp2Signature...), 0x00, 0x00, 0x00, 0x01, 'j', 'p', '2', 'c'), ErrTruncatedStream},
		{"no codestream box", jp2Signature, ErrInvalidMarker},
	}
	for _, tc := range cases {
		if _, err := unwrapJP2(tc.data); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}
