// Package receipt renders order receipts as PDF with a tracking QR code.
package receipt

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"caintamart/models"
	"caintamart/view"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Renderer signs tracking payloads with secret.
type Renderer struct {
	secret []byte
}

func NewRenderer(secret []byte) *Renderer {
	return &Renderer{secret: secret}
}

// Payload returns "orderID|userID|signature".
func (rd *Renderer) Payload(o models.Order) string {
	data := o.ID + "|" + o.UserID
	return data + "|" + rd.sign(data)
}

func (rd *Renderer) sign(data string) string {
	h := hmac.New(sha256.New, rd.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Verify checks a payload produced by Payload and returns the order id.
func (rd *Renderer) Verify(payload string) (string, bool) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return "", false
	}
	want := rd.sign(parts[0] + "|" + parts[1])
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return "", false
	}
	return parts[0], true
}

// pesos formats an amount for the PDF core fonts, which lack the peso sign.
func pesos(v float64) string {
	return "PHP " + strings.TrimPrefix(view.PriceLabel(v), "₱")
}

// Render builds the receipt PDF for o.
func (rd *Renderer) Render(o models.Order) ([]byte, error) {
	qrPNG, err := qrcode.Encode(rd.Payload(o), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("receipt: qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Receipt "+o.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Cainta Fresh Market")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, "Order "+o.ID)
	pdf.Ln(6)
	pdf.Cell(0, 7, "Placed "+view.TimeLabel(o.CreatedAt))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Status: "+string(o.Status))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Deliver to")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr(o.CustomerName+"  "+o.ContactNumber))
	pdf.Ln(6)
	pdf.Cell(0, 7, tr(o.Address.Street+", "+o.Address.Barangay+", "+o.Address.City+", "+o.Address.Province))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		name := it.Name
		if it.Preordered {
			name += " (pre-order)"
		}
		pdf.CellFormat(90, 7, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, pesos(it.Price), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, pesos(it.LineTotal()), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
	for _, row := range [][2]string{
		{"Subtotal", pesos(o.Subtotal)},
		{"Delivery fee", pesos(o.DeliveryFee)},
		{"Total", pesos(o.Total)},
	} {
		pdf.CellFormat(145, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, row[1], "", 1, "R", false, 0, "")
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 15, 35, 35, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: pdf: %w", err)
	}
	return buf.Bytes(), nil
}
