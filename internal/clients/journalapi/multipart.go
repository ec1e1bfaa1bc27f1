package journalapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart writes text fields in order, then one part per screenshot
func encodeMultipart(p *domain.TradePayload) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range p.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.Name, err)
		}
	}

	for _, file := range p.Screenshots {
		if err := writeFile(w, file); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, file domain.UploadFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		domain.FieldScreenshots, quoteEscaper.Replace(file.FileName())))
	mediaType := file.MediaType()
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", file.FileName(), err)
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.FileName(), err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("failed to read %s: %w", file.FileName(), err)
	}
	return nil
}
