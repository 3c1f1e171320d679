package enums

// PointReason labels every ledger entry. Balances are never overwritten
// directly; each mutation appends an entry with one of these reasons.
type PointReason string

const (
	PointReasonSignupBonus PointReason = "signup_bonus"
	PointReasonTopup       PointReason = "topup"
	PointReasonBidHold     PointReason = "bid_hold"
	PointReasonBidRelease  PointReason = "bid_release"
	PointReasonPurchase    PointReason = "purchase"
	PointReasonSaleIncome  PointReason = "sale_income"
	PointReasonReward      PointReason = "reward"
)
