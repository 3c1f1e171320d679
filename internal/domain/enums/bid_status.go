package enums

type BidStatus string

const (
	BidStatusActive BidStatus = "active"
	BidStatusOutbid BidStatus = "outbid"
	BidStatusWon    BidStatus = "won"
	BidStatusLost   BidStatus = "lost"
)
