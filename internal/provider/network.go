package provider

import (
	"strings"

	"github.com/chineduogbonna/marketpay/internal/models"
)

// Carrier prefixes for Nigerian MSISDNs, local 0-prefixed form.
var networkPrefixes = map[string]string{
	"0803": "mtn", "0806": "mtn", "0703": "mtn", "0706": "mtn",
	"0813": "mtn", "0816": "mtn", "0810": "mtn", "0814": "mtn", "0903": "mtn", "0906": "mtn",
	"0805": "glo", "0807": "glo", "0705": "glo", "0815": "glo", "0811": "glo", "0905": "glo",
	"0802": "airtel", "0808": "airtel", "0708": "airtel", "0812": "airtel",
	"0701": "airtel", "0902": "airtel", "0901": "airtel", "0904": "airtel",
	"0809": "9mobile", "0817": "9mobile", "0818": "9mobile", "0908": "9mobile", "0909": "9mobile",
}

// DetectNetwork maps a phone number to its carrier by prefix. Accepts the
// +234 / 234 international forms as well as the local 0-prefixed form.
func DetectNetwork(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "234") {
		p = "0" + p[3:]
	}
	if len(p) < 4 {
		return "", models.ErrNetworkDetectionFailed
	}
	if n, ok := networkPrefixes[p[:4]]; ok {
		return n, nil
	}
	return "", models.ErrNetworkDetectionFailed
}
