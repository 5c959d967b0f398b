package patron

import (
	"testing"

	"github.com/xraph/patron/types"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name    string
		price   int64
		wantNet int64
		wantFee int64
	}{
		{"zero", 0, 0, 0},
		{"below fee threshold", 49, 49, 0},
		{"exact threshold", 50, 49, 1},
		{"gold tier", 100, 98, 2},
		{"odd price", 101, 99, 2},
		{"rounding down", 149, 147, 2},
		{"large price", 1_000_000_000, 980_000_000, 20_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, fee := SplitFee(types.Token("credits", tt.price))
			if net.Amount != tt.wantNet {
				t.Errorf("creatorNet: got %d, want %d", net.Amount, tt.wantNet)
			}
			if fee.Amount != tt.wantFee {
				t.Errorf("protocolFee: got %d, want %d", fee.Amount, tt.wantFee)
			}
		})
	}
}

func TestSplitFeeConservation(t *testing.T) {
	// fee + net must reassemble the price exactly across a wide sweep.
	for price := int64(0); price <= 10_000; price++ {
		net, fee := SplitFee(types.Token("credits", price))
		if net.Amount+fee.Amount != price {
			t.Fatalf("price %d: net %d + fee %d != price", price, net.Amount, fee.Amount)
		}
		if fee.Amount != price*2/100 {
			t.Fatalf("price %d: fee %d != floor(price*2/100)", price, fee.Amount)
		}
	}

	// Spot checks at the top of the specified input range.
	for _, price := range []int64{999_999_999, 1_000_000_000} {
		net, fee := SplitFee(types.Token("credits", price))
		if net.Amount+fee.Amount != price {
			t.Fatalf("price %d: split does not conserve", price)
		}
	}
}

func TestSplitFeePreservesAsset(t *testing.T) {
	net, fee := SplitFee(types.USD(4900))
	if net.Currency != "usd" || fee.Currency != "usd" {
		t.Errorf("asset not preserved: net %q, fee %q", net.Currency, fee.Currency)
	}
}
