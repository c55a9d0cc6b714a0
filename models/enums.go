package models

// ParcelAction classifies audit log entries written by parcel lifecycle
// operations. The log stores quantity magnitudes; the ledger sign is implied
// by the action kind (SENT decrements the sender, POSTED increments the
// receiver, DELETED restores the sender).
type ParcelAction string

const (
	ParcelActionSent    ParcelAction = "SENT"
	ParcelActionPosted  ParcelAction = "POSTED"
	ParcelActionDeleted ParcelAction = "DELETED"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleOperator UserRole = "O"
)
