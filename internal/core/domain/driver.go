package domain

import "strings"

// DefaultDriverName is printed when no name can be resolved for a driver.
const DefaultDriverName = "Conductor"

// DriverProfile is what the driver directory knows about a driver, including the
// linked user profile fields used as fallbacks.
type DriverProfile struct {
	DriverID        string
	DisplayName     string
	FullName        string
	FirstName       string
	LastName        string
	UserDisplayName string
	UserFullName    string
	TaxID           string
	NationalID      string
}

// ResolvedName returns the first non-empty candidate name, or DefaultDriverName.
func (p DriverProfile) ResolvedName() string {
	candidates := []string{
		p.DisplayName,
		p.FullName,
		strings.TrimSpace(p.FirstName + " " + p.LastName),
		p.UserDisplayName,
		p.UserFullName,
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return DefaultDriverName
}

// BillingTaxID is the identifier printed on the document: the tax id, else the national id.
func (p DriverProfile) BillingTaxID() string {
	if t := strings.TrimSpace(p.TaxID); t != "" {
		return t
	}
	return strings.TrimSpace(p.NationalID)
}
