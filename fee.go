package patron

import "github.com/xraph/patron/types"

// ProtocolFeePercent is the protocol's cut of every settled tier price.
const ProtocolFeePercent = 2

// SplitFee splits a tier price into the creator's net amount and the
// protocol fee. The fee is floor(price * 2 / 100); the creator receives the
// remainder, so the two always sum back to the price exactly. Deterministic,
// no side effects, no error conditions.
func SplitFee(price types.Money) (creatorNet, protocolFee types.Money) {
	protocolFee = types.Money{
		Amount:   price.Amount * ProtocolFeePercent / 100,
		Currency: price.Currency,
	}
	creatorNet = price.Subtract(protocolFee)
	return creatorNet, protocolFee
}
