package domain

// Owned is implemented by resources that carry their owner directly.
type Owned interface {
	OwnerID() int64
}
