// Package upi builds and validates UPI deep-link payment strings per
// the NPCI upi://pay URI convention. It is pure string work: no
// settlement ever flows back through it.
package upi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxAmount is the per-transaction ceiling accepted by UPI apps.
	MaxAmount = 100000.0

	maxPayeeNameLen = 50
	maxNoteLen      = 100
)

var (
	ErrInvalidPayeeAddress = errors.New("invalid UPI payee address")
	ErrInvalidPayeeName    = errors.New("invalid payee name")
	ErrInvalidAmount       = errors.New("amount must be positive and at most 100000")
	ErrNoteTooLong         = errors.New("transaction note too long")

	// username@bank, 5-50 chars
	addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+$`)
)

// PaymentData carries everything needed to render a payment request.
type PaymentData struct {
	PayeeAddress string
	PayeeName    string
	Amount       float64
	Note         string
	TxRef        string
	MerchantCode string
	Currency     string
}

// Validate checks the payment data against the constraints UPI apps
// enforce at scan time.
func (d *PaymentData) Validate() error {
	if !IsValidAddress(d.PayeeAddress) {
		return ErrInvalidPayeeAddress
	}
	if name := strings.TrimSpace(d.PayeeName); name == "" || len(name) > maxPayeeNameLen {
		return ErrInvalidPayeeName
	}
	if d.Amount <= 0 || d.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	if len(d.Note) > maxNoteLen {
		return ErrNoteTooLong
	}
	return nil
}

// IsValidAddress reports whether addr looks like a UPI id (username@bank).
func IsValidAddress(addr string) bool {
	return len(addr) >= 5 && len(addr) <= 50 && addressPattern.MatchString(addr)
}

// BuildPayString renders the upi://pay deep link. Parameter order
// matters to some scanner implementations, so the string is assembled
// by hand rather than with url.Values.
func BuildPayString(data PaymentData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}

	note := data.Note
	if note == "" {
		note = fmt.Sprintf("Payment to %s", data.PayeeName)
	}
	txRef := data.TxRef
	if txRef == "" {
		txRef = NewTransactionRef()
	}
	merchantCode := data.MerchantCode
	if merchantCode == "" {
		merchantCode = "0000"
	}
	currency := data.Currency
	if currency == "" {
		currency = "INR"
	}

	// Amount must carry exactly two decimals.
	amount := strconv.FormatFloat(data.Amount, 'f', 2, 64)

	params := []string{
		"pa=" + data.PayeeAddress,
		"pn=" + url.QueryEscape(data.PayeeName),
		"am=" + amount,
		"cu=" + currency,
		"tn=" + url.QueryEscape(note),
		"tr=" + txRef,
		"mc=" + merchantCode,
		"mode=02",
		"purpose=00",
		"orgid=000000",
		"sign=",
	}

	return "upi://pay?" + strings.Join(params, "&"), nil
}

// NewTransactionRef generates a unique transaction reference: a DK
// prefix, the trailing digits of the current unix-milli clock, and a
// short random suffix.
func NewTransactionRef() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}

	buf := make([]byte, 3)
	rand.Read(buf)

	return "DK" + ts + strings.ToUpper(hex.EncodeToString(buf))
}
