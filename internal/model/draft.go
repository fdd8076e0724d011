package model

// Attachment is a file carried on an outbound draft.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}

// DraftRequest pairs a contact with pre-generated content. Index is the
// caller's position for the request and is echoed on the result.
type DraftRequest struct {
	Index       int          `json:"index"`
	Contact     Contact      `json:"contact"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// DraftResult is the outcome of one DraftRequest.
type DraftResult struct {
	Index      int    `json:"index"`
	ArtifactID string `json:"artifact_id,omitempty"`
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether an artifact was created.
func (r DraftResult) OK() bool {
	return r.Err == nil && r.ArtifactID != ""
}
