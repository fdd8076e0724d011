package gmail

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedDate = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func TestBuild_PlainText(t *testing.T) {
	raw, err := Build(Message{
		From:    "me@sells.example",
		To:      "jane@acme.com",
		ToName:  "Jane Doe",
		Subject: "Quick question",
		Body:    "Hi Jane,\nHope all is well.",
		Date:    fixedDate,
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, `"Jane Doe" <jane@acme.com>`, msg.Header.Get("To"))
	assert.Equal(t, "me@sells.example", msg.Header.Get("From"))
	assert.Equal(t, "Quick question", msg.Header.Get("Subject"))
	assert.Contains(t, msg.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hi Jane,\r\nHope all is well.", string(body))
}

func TestBuild_EncodesUnicodeSubject(t *testing.T) {
	raw, err := Build(Message{To: "jose@acme.com", Subject: "Olá José", Date: fixedDate})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Olá José", subject)
}

func TestBuild_WithAttachments(t *testing.T) {
	pdf := bytes.Repeat([]byte("%PDF-1.4 "), 20)
	raw, err := Build(Message{
		To:      "jane@acme.com",
		Subject: "Deck",
		Body:    "See attached.",
		Attachments: []Attachment{
			{Filename: "deck.pdf", Data: pdf},
			{Filename: "notes", ContentType: "text/markdown", Data: []byte("# notes")},
		},
		Date: fixedDate,
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	p, err := mr.NextPart()
	require.NoError(t, err)
	assert.Contains(t, p.Header.Get("Content-Type"), "text/plain")
	text, _ := io.ReadAll(p)
	assert.Equal(t, "See attached.", string(text))

	p, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "deck.pdf", p.FileName())
	assert.Contains(t, p.Header.Get("Content-Type"), "application/pdf")
	assert.Equal(t, "base64", p.Header.Get("Content-Transfer-Encoding"))

	p, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "notes", p.FileName())
	assert.Contains(t, p.Header.Get("Content-Type"), "text/markdown")

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuild_InvalidRecipient(t *testing.T) {
	_, err := Build(Message{To: "not an address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}
