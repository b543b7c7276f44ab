package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	job, err := DecodeJob([]byte(`{"id":"j1","pdf_key":"docs/guide.pdf","from_language":"en","to_language":"fr"}`))
	require.NoError(t, err)
	assert.Equal(t, Job{ID: "j1", PDFKey: "docs/guide.pdf", SourceLang: "en", TargetLang: "fr"}, job)
}

func TestDecodeJob_AssignsID(t *testing.T) {
	job, err := DecodeJob([]byte(`{"pdf_key":"a.pdf"}`))
	require.NoError(t, err)
	_, err = uuid.Parse(job.ID)
	assert.NoError(t, err)
}

func TestDecodeJob_Malformed(t *testing.T) {
	for _, payload := range []string{`not json`, `{}`, `{"pdf_key":"  "}`} {
		_, err := DecodeJob([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedJob, payload)
	}
}

func TestJobEncodeRoundTrip(t *testing.T) {
	in := Job{ID: "x", PDFKey: "a.pdf", SourceLang: "en", TargetLang: "ta"}
	data, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeJob(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOutputKey(t *testing.T) {
	tests := []struct {
		key, want string
	}{
		{"User guide.pdf", "User guide_en_to_fr.html"},
		{"uploads/2024/report.v2.pdf", "uploads/2024/report.v2_en_to_fr.html"},
		{"noext", "noext_en_to_fr.html"},
		{"dir.d/noext", "dir.d/noext_en_to_fr.html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputKey(tt.key, "en", "fr"), tt.key)
	}
}

func TestConverterArgs(t *testing.T) {
	args := PDF2HTMLEX{}.Args("/tmp/x/input.pdf", "/tmp/x", "output.html")
	assert.Equal(t, []string{"--tounicode", "1", "--optimize-text", "0", "--dest-dir", "/tmp/x", "/tmp/x/input.pdf", "output.html"}, args)
}
