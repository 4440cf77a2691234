package certificate

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Uploader stores a rendered file and returns where it can be fetched.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// RenderPDF draws a one page landscape certificate.
func RenderPDF(c Certificate, holder Holder) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 20, c.Title, "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "Awarded to", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, holder.FullName(), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 7, c.Description, "", "C", false)
	pdf.Ln(10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued: %s", c.IssuedDate.Format(dateLayout)), "", 1, "C", false, 0, "")
	if c.ExpiryDate != nil {
		pdf.CellFormat(0, 8, fmt.Sprintf("Valid until: %s", c.ExpiryDate.Format(dateLayout)), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Certificate ID: %s", c.CertificateID), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Publish renders the certificate, uploads it and records the file URL.
func (i *Issuer) Publish(ctx context.Context, certificateID string, uploader Uploader) (string, error) {
	cert, err := i.Store.GetByCertificateID(ctx, certificateID)
	if err != nil {
		return "", err
	}
	holder, err := i.Store.GetHolder(ctx, cert.EmployeeID)
	if err != nil {
		return "", err
	}
	body, err := RenderPDF(cert, holder)
	if err != nil {
		return "", err
	}
	url, err := uploader.Put(ctx, cert.CertificateID+".pdf", body, "application/pdf")
	if err != nil {
		return "", err
	}
	if err := i.Store.SetFileURL(ctx, cert.ID, url); err != nil {
		return "", err
	}
	return url, nil
}
