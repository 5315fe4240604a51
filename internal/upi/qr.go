package upi

import (
	"fmt"
	"net/url"
)

// QRService is an external image endpoint that renders a UPI string as
// a scannable code. Services are tried in order; when one fails to load
// the client asks for the next index.
type QRService struct {
	Name     string
	BuildURL func(upiString string) string
}

// qrServices is the fallback chain, primary first.
var qrServices = []QRService{
	{
		Name: "qrserver",
		BuildURL: func(upiString string) string {
			return fmt.Sprintf(
				"https://api.qrserver.com/v1/create-qr-code/?size=400x400&data=%s&format=png&margin=10&ecc=M&color=000000&bgcolor=ffffff",
				url.QueryEscape(upiString),
			)
		},
	},
	{
		Name: "google-charts",
		BuildURL: func(upiString string) string {
			return fmt.Sprintf(
				"https://chart.googleapis.com/chart?chs=400x400&cht=qr&chl=%s&choe=UTF-8&chld=M|2",
				url.QueryEscape(upiString),
			)
		},
	},
}

// QRImageURL returns the image URL for the QR service at the given
// fallback index. Indexes past the end clamp to the last service, so a
// client can keep retrying without going out of range.
func QRImageURL(upiString string, serviceIndex int) (name, imageURL string) {
	if serviceIndex < 0 {
		serviceIndex = 0
	}
	if serviceIndex >= len(qrServices) {
		serviceIndex = len(qrServices) - 1
	}

	svc := qrServices[serviceIndex]
	return svc.Name, svc.BuildURL(upiString)
}

// QRServiceCount reports how many fallback endpoints are configured.
func QRServiceCount() int {
	return len(qrServices)
}
