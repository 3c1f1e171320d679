package enums

type PhotoStatus string

const (
	PhotoStatusPending  PhotoStatus = "pending"
	PhotoStatusActive   PhotoStatus = "active"
	PhotoStatusSold     PhotoStatus = "sold"
	PhotoStatusExpired  PhotoStatus = "expired"
	PhotoStatusInactive PhotoStatus = "inactive"
)

func (s PhotoStatus) Valid() bool {
	switch s {
	case PhotoStatusPending, PhotoStatusActive, PhotoStatusSold, PhotoStatusExpired, PhotoStatusInactive:
		return true
	}
	return false
}
