package pdf

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()

	var buf bytes.Buffer
	err := r.Render(&buf, CertificateData{
		Identifier:    "11111111-2222-3333-4444-555555555555",
		RecipientName: "Maria Silva",
		EventName:     "Workshop A",
		IssuedAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output should start with a PDF header")
	assert.Greater(t, buf.Len(), 1000)
}

func TestRenderPrintsRecipientAndIdentifier(t *testing.T) {
	r := NewRenderer()
	identifier := "aaaabbbb-cccc-dddd-eeee-ffff00001111"

	var buf bytes.Buffer
	err := r.Render(&buf, CertificateData{
		Identifier:    identifier,
		RecipientName: "Maria Silva",
		EventName:     "Workshop A",
		IssuedAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	text := inflateStreams(t, buf.Bytes())
	assert.Contains(t, text, "MARIA SILVA", "recipient must be printed uppercase")
	assert.Contains(t, text, identifier, "validation code must be printed verbatim")
	assert.Contains(t, text, "Workshop A")
	assert.Contains(t, text, "14/03/2026")
}

func TestRenderRequiresIdentifier(t *testing.T) {
	r := NewRenderer()

	var buf bytes.Buffer
	err := r.Render(&buf, CertificateData{
		RecipientName: "Maria Silva",
		EventName:     "Workshop A",
		IssuedAt:      time.Now(),
	})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRenderRequiresRecipient(t *testing.T) {
	r := NewRenderer()

	var buf bytes.Buffer
	err := r.Render(&buf, CertificateData{
		Identifier: "some-id",
		EventName:  "Workshop A",
		IssuedAt:   time.Now(),
	})
	assert.Error(t, err)
}

// inflateStreams decompresses every Flate content stream in the document so
// the page text can be asserted on
func inflateStreams(t *testing.T, data []byte) string {
	t.Helper()

	var out []byte
	rest := data
	for {
		i := bytes.Index(rest, []byte("stream\n"))
		if i < 0 {
			break
		}
		rest = rest[i+len("stream\n"):]

		j := bytes.Index(rest, []byte("endstream"))
		if j < 0 {
			break
		}
		raw := bytes.TrimRight(rest[:j], "\r\n")
		rest = rest[j:]

		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			// Not a Flate stream (image data etc.)
			continue
		}
		if inflated, err := io.ReadAll(zr); err == nil {
			out = append(out, inflated...)
		}
		zr.Close()
	}

	require.NotEmpty(t, out, "document should contain at least one Flate stream")
	return string(out)
}
