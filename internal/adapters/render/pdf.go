// Package render turns receipt documents into PDF artifacts.
package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	"github.com/skip2/go-qrcode"
)

const (
	pdfContentType = "application/pdf"
	qrImageName    = "verify-qr"
	qrPixels       = 256
	currencySymbol = "S/"
)

var documentTitles = map[domain.DocumentType]string{
	domain.DocumentInvoice: "FACTURA ELECTRÓNICA",
	domain.DocumentReceipt: "BOLETA DE VENTA ELECTRÓNICA",
}

// PDFRenderer renders receipts as single-page A4 PDFs with a verification QR code.
type PDFRenderer struct {
	qrLevel qrcode.RecoveryLevel
}

var _ gateways.ReceiptRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer returns a renderer using medium QR error correction.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{qrLevel: qrcode.Medium}
}

// ContentType of the rendered artifact.
func (r *PDFRenderer) ContentType() string {
	return pdfContentType
}

// Render draws the document.
func (r *PDFRenderer) Render(doc domain.ReceiptDocument) ([]byte, error) {
	qr, err := qrcode.Encode(doc.VerifyPayload, r.qrLevel, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("encode verification qr: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Receipt.SeriesNumber, true)
	pdf.SetCreationDate(doc.Receipt.IssueDate)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Issuer block on the left, document box on the right.
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(110, 8, tr(doc.Issuer.Name), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if doc.Issuer.TaxID != "" {
		pdf.CellFormat(110, 6, tr("RUC: "+doc.Issuer.TaxID), "", 2, "L", false, 0, "")
	}
	if doc.Issuer.Address != "" {
		pdf.CellFormat(110, 6, tr(doc.Issuer.Address), "", 2, "L", false, 0, "")
	}

	pdf.SetXY(130, 10)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, tr(documentTitles[doc.Receipt.DocumentType]), "LTR", 2, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(70, 10, doc.Receipt.SeriesNumber, "LBR", 2, "C", false, 0, "")

	pdf.SetXY(10, 45)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, tr("Datos del conductor"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	r.row(pdf, tr, "Nombre", doc.PayeeName)
	if doc.PayeeTaxID != "" {
		label := "DNI"
		if doc.Receipt.DocumentType == domain.DocumentInvoice {
			label = "RUC"
		}
		r.row(pdf, tr, label, doc.PayeeTaxID)
	}
	r.row(pdf, tr, "Fecha de emisión", doc.Receipt.IssueDate.Format("02/01/2006"))
	r.row(pdf, tr, "Solicitud de pago", doc.Receipt.PaymentRequestID)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(140, 8, tr("Descripción"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Importe", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(140, 8, tr("Pago de comisión por uso de la plataforma"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money(doc.Receipt), "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, money(doc.Receipt), "1", 1, "R", false, 0, "")

	y := pdf.GetY() + 10
	pdf.RegisterImageOptionsReader(qrImageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
	pdf.ImageOptions(qrImageName, 10, y, 35, 35, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetXY(50, y+12)
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(140, 4, tr("Representación impresa del comprobante electrónico. Escanee el código QR para verificarlo."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) row(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 6, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func money(r domain.Receipt) string {
	return currencySymbol + " " + r.Amount.StringFixed(domain.MoneyPrecision)
}
