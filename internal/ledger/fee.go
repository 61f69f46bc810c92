package ledger

import (
	"fmt"
	"strings"
)

const basisPointsDenominator = 10_000

// Rounding selects how fractional fees are resolved.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundHalfUp
	RoundUp
)

func (r Rounding) String() string {
	switch r {
	case RoundDown:
		return "down"
	case RoundHalfUp:
		return "half_up"
	case RoundUp:
		return "up"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// ParseRounding accepts "down", "half_up" and "up".
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "down", "floor":
		return RoundDown, nil
	case "half_up", "halfup", "nearest":
		return RoundHalfUp, nil
	case "up", "ceil":
		return RoundUp, nil
	}
	return RoundDown, fmt.Errorf("unknown fee rounding %q", s)
}

// FeePolicy decides the operator's cut of a marketplace purchase.
// Peer transfers never carry a fee.
type FeePolicy struct {
	RateBasisPoints  int64 // 500 = 5%
	Rounding         Rounding
	OperatorUsername string
	ExemptOfficial   bool
}

// DefaultFeePolicy charges 5% on non-official listings, rounded down.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		RateBasisPoints:  500,
		Rounding:         RoundDown,
		OperatorUsername: "pigpay",
		ExemptOfficial:   true,
	}
}

func (p FeePolicy) Validate() error {
	if p.RateBasisPoints < 0 || p.RateBasisPoints > basisPointsDenominator {
		return fmt.Errorf("fee rate must be between 0 and %d basis points, got %d", basisPointsDenominator, p.RateBasisPoints)
	}
	if p.Rounding < RoundDown || p.Rounding > RoundUp {
		return fmt.Errorf("invalid fee rounding %v", p.Rounding)
	}
	if p.RateBasisPoints > 0 && strings.TrimSpace(p.OperatorUsername) == "" {
		return fmt.Errorf("operator username is required when a fee rate is set")
	}
	return nil
}

// Compute returns the fee for a listing of the given price. The result is
// always within [0, price].
func (p FeePolicy) Compute(price int64, official bool) int64 {
	if price <= 0 || p.RateBasisPoints <= 0 {
		return 0
	}
	if official && p.ExemptOfficial {
		return 0
	}

	// split to keep price*rate from overflowing on large prices
	whole := (price / basisPointsDenominator) * p.RateBasisPoints
	rem := (price % basisPointsDenominator) * p.RateBasisPoints
	fee := whole + rem/basisPointsDenominator
	frac := rem % basisPointsDenominator

	switch p.Rounding {
	case RoundHalfUp:
		if frac*2 >= basisPointsDenominator {
			fee++
		}
	case RoundUp:
		if frac > 0 {
			fee++
		}
	}

	if fee > price {
		fee = price
	}
	return fee
}
