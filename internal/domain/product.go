package domain

type ProductStatus string

const (
	ProductStatusPending   ProductStatus = "Pending"
	ProductStatusDelivered ProductStatus = "Delivered"
	ProductStatusCancelled ProductStatus = "Cancelled"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusPending, ProductStatusDelivered, ProductStatusCancelled:
		return true
	}
	return false
}

// Package is a physical parcel inside a product. Units are conventional
// ("kg"/"lbs", "pcs"/"boxes") and not enforced here.
type Package struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	WeightUnit   string  `json:"weightUnit"`
	Quantity     float64 `json:"quantity"`
	QuantityUnit string  `json:"quantityUnit"`
}

type Product struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Recipient      string        `json:"recipient"`
	RecipientPhone string        `json:"recipientPhone"`
	Description    string        `json:"description"`
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	ETA            int64         `json:"eta"`
	Status         ProductStatus `json:"status"`
	Packages       []Package     `json:"packages"`
}

// Clone returns a copy that shares no package storage with p.
func (p Product) Clone() Product {
	out := p
	if p.Packages != nil {
		out.Packages = make([]Package, len(p.Packages))
		copy(out.Packages, p.Packages)
	}
	return out
}

// NewProduct is the creation input: every product field except the id.
type NewProduct struct {
	Title          string        `json:"title"`
	Recipient      string        `json:"recipient"`
	RecipientPhone string        `json:"recipientPhone"`
	Description    string        `json:"description"`
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	ETA            int64         `json:"eta"`
	Status         ProductStatus `json:"status,omitempty"`
	Packages       []Package     `json:"packages"`
}

// Build turns the input into a product with the given id. An empty status
// becomes Pending.
func (n NewProduct) Build(id string) Product {
	status := n.Status
	if status == "" {
		status = ProductStatusPending
	}

	packages := make([]Package, len(n.Packages))
	copy(packages, n.Packages)

	return Product{
		ID:             id,
		Title:          n.Title,
		Recipient:      n.Recipient,
		RecipientPhone: n.RecipientPhone,
		Description:    n.Description,
		Origin:         n.Origin,
		Destination:    n.Destination,
		ETA:            n.ETA,
		Status:         status,
		Packages:       packages,
	}
}

// ProductPatch holds the fields of a partial update. Nil fields are left
// untouched; a non-nil Packages replaces the whole package list.
type ProductPatch struct {
	Title          *string        `json:"title,omitempty"`
	Recipient      *string        `json:"recipient,omitempty"`
	RecipientPhone *string        `json:"recipientPhone,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Origin         *string        `json:"origin,omitempty"`
	Destination    *string        `json:"destination,omitempty"`
	ETA            *int64         `json:"eta,omitempty"`
	Status         *ProductStatus `json:"status,omitempty"`
	Packages       *[]Package     `json:"packages,omitempty"`
}

func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Recipient == nil && p.RecipientPhone == nil &&
		p.Description == nil && p.Origin == nil && p.Destination == nil &&
		p.ETA == nil && p.Status == nil && p.Packages == nil
}

// Apply shallow-merges the patch into product. The id is never touched.
func (p ProductPatch) Apply(product *Product) {
	if p.Title != nil {
		product.Title = *p.Title
	}
	if p.Recipient != nil {
		product.Recipient = *p.Recipient
	}
	if p.RecipientPhone != nil {
		product.RecipientPhone = *p.RecipientPhone
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Origin != nil {
		product.Origin = *p.Origin
	}
	if p.Destination != nil {
		product.Destination = *p.Destination
	}
	if p.ETA != nil {
		product.ETA = *p.ETA
	}
	if p.Status != nil {
		product.Status = *p.Status
	}
	if p.Packages != nil {
		packages := make([]Package, len(*p.Packages))
		copy(packages, *p.Packages)
		product.Packages = packages
	}
}

type StatusCounts struct {
	Pending   int `json:"pending"`
	Delivered int `json:"delivered"`
	Cancelled int `json:"cancelled"`
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Delivered + c.Cancelled
}
