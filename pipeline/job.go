// Package pipeline turns queued PDF jobs into translated HTML documents:
// download, convert with pdf2htmlEX, assemble the translated document and
// upload the result, while keeping the job status row current.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Job statuses written to the status store.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrMalformedJob is returned for queue payloads that do not describe a job.
var ErrMalformedJob = errors.New("malformed job")

// Job is one queued PDF translation request.
type Job struct {
	ID         string `json:"id,omitempty"`
	PDFKey     string `json:"pdf_key"`
	SourceLang string `json:"from_language,omitempty"`
	TargetLang string `json:"to_language,omitempty"`
}

// DecodeJob parses a queue payload. Jobs without an ID get a fresh one.
func DecodeJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if strings.TrimSpace(job.PDFKey) == "" {
		return Job{}, fmt.Errorf("%w: pdf_key is required", ErrMalformedJob)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	return job, nil
}

// Encode returns the queue payload for job.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// OutputKey names the translated document: the PDF key without its
// extension, suffixed with the language pair.
func OutputKey(pdfKey, source, target string) string {
	base := strings.TrimSuffix(pdfKey, path.Ext(pdfKey))
	return base + "_" + source + "_to_" + target + ".html"
}
