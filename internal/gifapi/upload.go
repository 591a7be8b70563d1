package gifapi

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
)

// writeUploadForm writes the multipart body for an upload request and returns
// its Content-Type. The file part carries a Content-Type guessed from the
// filename extension so the service can reject non-images early.
func writeUploadForm(w io.Writer, sessionID, filename string, r io.Reader) (string, error) {
	mw := multipart.NewWriter(w)

	if err := mw.WriteField("session_id", sessionID); err != nil {
		return "", fmt.Errorf("write session_id: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	h.Set("Content-Type", contentTypeFor(filename))
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
