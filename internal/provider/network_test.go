package provider

import (
	"errors"
	"testing"

	"github.com/chineduogbonna/marketpay/internal/models"
)

func TestDetectNetwork(t *testing.T) {
	cases := []struct {
		phone string
		want  string
	}{
		{"08031234567", "mtn"},
		{"09061234567", "mtn"},
		{"08051234567", "glo"},
		{"08021234567", "airtel"},
		{"09091234567", "9mobile"},
		{"+2348031234567", "mtn"},
		{"2348051234567", "glo"},
		{" 08171234567 ", "9mobile"},
	}
	for _, c := range cases {
		got, err := DetectNetwork(c.phone)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", c.phone, err)
		}
		if got != c.want {
			t.Fatalf("%q: expected %s, got %s", c.phone, c.want, got)
		}
	}
}

func TestDetectNetworkUnknown(t *testing.T) {
	for _, phone := range []string{"01234567890", "0999", "12", "", "+44123456789"} {
		if _, err := DetectNetwork(phone); !errors.Is(err, models.ErrNetworkDetectionFailed) {
			t.Fatalf("%q: expected ErrNetworkDetectionFailed, got %v", phone, err)
		}
	}
}
