package tables

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders the QR codes printed on each table. Scanning one
// opens the ordering page for that table, which is how a customer's
// phone ends up attached to the right session.
type QRGenerator struct {
	BaseURL string
	Size    int
}

func NewQRGenerator(baseURL string, size int) *QRGenerator {
	if size <= 0 {
		size = 256
	}
	return &QRGenerator{BaseURL: baseURL, Size: size}
}

// TableURL is the link encoded for a table.
func (g *QRGenerator) TableURL(tableNumber int) string {
	return fmt.Sprintf("%s/%d", g.BaseURL, tableNumber)
}

// GenerateTableQR returns the PNG bytes for a table's QR code.
func (g *QRGenerator) GenerateTableQR(tableNumber int) ([]byte, error) {
	return qrcode.Encode(g.TableURL(tableNumber), qrcode.Medium, g.Size)
}
