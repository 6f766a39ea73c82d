// Package pdf renders participation certificates as single-page PDF
// documents. The rendered validation code always equals the identifier
// stored in the certificate record, so a printed certificate can be
// cross-checked against the validation endpoint.
package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
)

// CertificateData carries the fields printed on one certificate
type CertificateData struct {
	Identifier    string
	RecipientName string
	EventName     string
	IssuedAt      time.Time
}

// Renderer renders certificate PDFs
type Renderer struct {
	title string
}

// NewRenderer creates a renderer with the standard certificate title
func NewRenderer() *Renderer {
	return &Renderer{
		title: "Certificado de Participação",
	}
}

// Render writes a single-page A4 landscape certificate to w
func (r *Renderer) Render(w io.Writer, data CertificateData) error {
	if data.Identifier == "" {
		return fmt.Errorf("certificate identifier is required")
	}
	if data.RecipientName == "" {
		return fmt.Errorf("recipient name is required")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(r.title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	// Page border
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(13, 13, pageW-26, pageH-26, "D")

	// Title
	pdf.SetY(35)
	pdf.SetFont("Arial", "B", 30)
	pdf.CellFormat(0, 15, tr(r.title), "", 1, "C", false, 0, "")

	// Salutation
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 16)
	pdf.CellFormat(0, 10, tr("Certificamos que"), "", 1, "C", false, 0, "")

	// Recipient, uppercase and emphasized
	pdf.SetFont("Arial", "B", 26)
	pdf.CellFormat(0, 16, tr(strings.ToUpper(data.RecipientName)), "", 1, "C", false, 0, "")

	// Event line
	pdf.SetFont("Arial", "", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("participou do evento \"%s\".", data.EventName)), "", 1, "C", false, 0, "")

	// Acknowledgment paragraph
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 12)
	pdf.MultiCell(0, 7, tr("Este certificado é concedido em reconhecimento à sua participação "+
		"e contribuição para o sucesso do evento."), "", "C", false)

	// Issuance date
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Emitido em %s", data.IssuedAt.Format("02/01/2006"))), "", 1, "C", false, 0, "")

	// Validation code, printed verbatim
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Código de validação: %s", data.Identifier)), "", 1, "C", false, 0, "")

	// QR code of the identifier in the lower right corner
	if err := r.drawQRCode(pdf, data.Identifier, pageW-40, pageH-40, 22); err != nil {
		return fmt.Errorf("failed to draw validation QR code: %w", err)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render certificate: %w", err)
	}

	return nil
}

// drawQRCode encodes content as a QR symbol and places it on the page
func (r *Renderer) drawQRCode(pdf *fpdf.Fpdf, content string, x, y, size float64) error {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}

	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return fmt.Errorf("failed to scale QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return fmt.Errorf("failed to encode QR image: %w", err)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("validation-qr", opts, &buf)
	pdf.ImageOptions("validation-qr", x, y, size, size, false, opts, 0, "")

	return nil
}
