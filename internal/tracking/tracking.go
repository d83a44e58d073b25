// Package tracking encodes local order ids into the developer_tracking_id
// string that rides along with a Flouci payment session. The tracking id is
// the only correlation key between a provider payment and a local order, so
// Format and Parse must be exact inverses.
package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

// Prefix is the fixed, human-debuggable lead-in kept for compatibility with
// existing Flouci dashboards ("ORDER42").
const Prefix = "ORDER"

const signatureLen = 12

// Codec formats and parses tracking identifiers. When constructed with a
// non-empty secret it appends an HMAC-SHA256 suffix so a tampered id fails
// verification during reconciliation instead of resolving to the wrong order.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	c := &Codec{}
	if secret != "" {
		c.secret = []byte(secret)
	}
	return c
}

// Format builds the tracking id for an order. Order ids are always positive.
func (c *Codec) Format(orderID int64) string {
	base := Prefix + strconv.FormatInt(orderID, 10)
	if c.secret == nil {
		return base
	}
	return base + "-" + c.sign(base)
}

// Parse resolves a tracking id back to the order id it encodes. All failures
// wrap models.ErrCorrelation.
func (c *Codec) Parse(trackingID string) (int64, error) {
	if !strings.HasPrefix(trackingID, Prefix) {
		return 0, fmt.Errorf("%w: tracking id %q has no %s prefix", models.ErrCorrelation, trackingID, Prefix)
	}

	rest := trackingID[len(Prefix):]
	if c.secret != nil {
		base, sig, found := strings.Cut(trackingID, "-")
		if !found {
			return 0, fmt.Errorf("%w: tracking id %q is unsigned", models.ErrCorrelation, trackingID)
		}
		if !hmac.Equal([]byte(sig), []byte(c.sign(base))) {
			return 0, fmt.Errorf("%w: tracking id %q failed signature check", models.ErrCorrelation, trackingID)
		}
		rest = base[len(Prefix):]
	}

	orderID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || orderID <= 0 {
		return 0, fmt.Errorf("%w: tracking id %q carries no valid order id", models.ErrCorrelation, trackingID)
	}
	return orderID, nil
}

func (c *Codec) sign(base string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))[:signatureLen]
}
