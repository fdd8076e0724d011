package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Attachment is a file added to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outbound plain-text email.
type Message struct {
	From        string
	To          string
	ToName      string
	Subject     string
	Body        string
	Attachments []Attachment
	Date        time.Time
}

// Build renders m as an RFC 822 message. Messages with attachments are
// multipart/mixed.
func Build(m Message) ([]byte, error) {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return nil, eris.Wrapf(err, "gmail: invalid recipient %q", m.To)
	}
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var buf bytes.Buffer
	to := (&mail.Address{Name: m.ToName, Address: m.To}).String()
	writeHeader(&buf, "To", to)
	if m.From != "" {
		writeHeader(&buf, "From", m.From)
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(m.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", `text/plain; charset="UTF-8"`)
		writeHeader(&buf, "Content-Transfer-Encoding", "8bit")
		buf.WriteString("\r\n")
		buf.WriteString(crlf(m.Body))
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()))
	buf.WriteString("\r\n")

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="UTF-8"`},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gmail: create body part")
	}
	if _, err := text.Write([]byte(crlf(m.Body))); err != nil {
		return nil, eris.Wrap(err, "gmail: write body")
	}

	for _, a := range m.Attachments {
		if err := writeAttachment(mw, a); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "gmail: close multipart")
	}
	return buf.Bytes(), nil
}

func writeAttachment(mw *multipart.Writer, a Attachment) error {
	ct := a.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(extension(a.Filename))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	name := mime.QEncoding.Encode("utf-8", a.Filename)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", ct, name)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return eris.Wrapf(err, "gmail: create attachment part %s", a.Filename)
	}
	enc := base64.StdEncoding.EncodeToString(a.Data)
	for len(enc) > 76 {
		if _, err := part.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return eris.Wrapf(err, "gmail: write attachment %s", a.Filename)
		}
		enc = enc[76:]
	}
	if _, err := part.Write([]byte(enc + "\r\n")); err != nil {
		return eris.Wrapf(err, "gmail: write attachment %s", a.Filename)
	}
	return nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
