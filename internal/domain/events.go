package domain

import "time"

type ProductEventType string

const (
	ProductCreated ProductEventType = "product.created"
	ProductUpdated ProductEventType = "product.updated"
	ProductDeleted ProductEventType = "product.deleted"
)

// ProductEvent describes one applied mutation. Product is the state after the
// change (before it, for deletions). PreviousStatus is only set on updates.
type ProductEvent struct {
	Type           ProductEventType `json:"type"`
	ProductID      string           `json:"product_id"`
	Product        Product          `json:"product"`
	PreviousStatus ProductStatus    `json:"previous_status,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// StatusChanged reports whether an update moved the product to a new status.
func (e ProductEvent) StatusChanged() bool {
	return e.Type == ProductUpdated && e.PreviousStatus != "" && e.PreviousStatus != e.Product.Status
}

func (e ProductEvent) EventType() string {
	return string(e.Type)
}
