package products

import (
	"fmt"
	"strings"

	"github.com/joao-fontenele/shiptrack/internal/domain"
)

func validateNewProduct(in domain.NewProduct) []string {
	var problems []string

	required := []struct {
		field string
		value string
	}{
		{"title", in.Title},
		{"recipient", in.Recipient},
		{"recipientPhone", in.RecipientPhone},
		{"origin", in.Origin},
		{"destination", in.Destination},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.field+" is required")
		}
	}

	if in.ETA <= 0 {
		problems = append(problems, "eta must be a positive unix timestamp")
	}
	if in.Status != "" && !in.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not one of Pending, Delivered, Cancelled", in.Status))
	}

	if len(in.Packages) == 0 {
		problems = append(problems, "at least one package is required")
	}
	problems = append(problems, validatePackages(in.Packages)...)

	return problems
}

func validatePatch(p domain.ProductPatch) []string {
	var problems []string

	optional := []struct {
		field string
		value *string
	}{
		{"title", p.Title},
		{"recipient", p.Recipient},
		{"recipientPhone", p.RecipientPhone},
		{"origin", p.Origin},
		{"destination", p.Destination},
	}
	for _, o := range optional {
		if o.value != nil && strings.TrimSpace(*o.value) == "" {
			problems = append(problems, o.field+" must not be empty")
		}
	}

	if p.ETA != nil && *p.ETA <= 0 {
		problems = append(problems, "eta must be a positive unix timestamp")
	}
	if p.Status != nil && !p.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not one of Pending, Delivered, Cancelled", *p.Status))
	}
	if p.Packages != nil {
		if len(*p.Packages) == 0 {
			problems = append(problems, "at least one package is required")
		}
		problems = append(problems, validatePackages(*p.Packages)...)
	}

	return problems
}

func validatePackages(packages []domain.Package) []string {
	var problems []string
	for i, pkg := range packages {
		if strings.TrimSpace(pkg.Name) == "" {
			problems = append(problems, fmt.Sprintf("packages[%d].name is required", i))
		}
		if pkg.Weight <= 0 {
			problems = append(problems, fmt.Sprintf("packages[%d].weight must be positive", i))
		}
		if pkg.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("packages[%d].quantity must be positive", i))
		}
	}
	return problems
}
