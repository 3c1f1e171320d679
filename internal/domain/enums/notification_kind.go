package enums

type NotificationKind string

const (
	NotificationKindOutbid       NotificationKind = "outbid"
	NotificationKindAuctionWon   NotificationKind = "auction_won"
	NotificationKindPhotoSold    NotificationKind = "photo_sold"
	NotificationKindPhotoExpired NotificationKind = "photo_expired"
	NotificationKindApproved     NotificationKind = "moderation_approved"
	NotificationKindRejected     NotificationKind = "moderation_rejected"
	NotificationKindComment      NotificationKind = "post_comment"
	NotificationKindLike         NotificationKind = "post_like"
)
