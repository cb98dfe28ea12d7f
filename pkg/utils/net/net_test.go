package netutil_test

import (
	"testing"

	netutil "cardroom-service/pkg/utils/net"
)

func TestSameSubnet(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"10.0.1.5", "10.0.1.200", true},
		{"10.0.1.5", "10.0.2.5", false},
		{"2001:db8:1:aa::1", "2001:db8:1:bb::2", true},
		{"2001:db8:1::1", "2001:db8:2::1", false},
		{"::ffff:10.0.1.9", "10.0.1.1", true},
		{"", "", false},
		{"garbage", "garbage", false},
	}
	for _, tc := range cases {
		if got := netutil.SameSubnet(tc.a, tc.b); got != tc.want {
			t.Fatalf("SameSubnet(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
