// Package taxonomy defines the closed, versioned set of Schedule C expense
// categories. The set is immutable at runtime; changes ship as a new version
// so historical decisions remain attributable to the version active when they
// were made.
package taxonomy

import (
	"errors"
	"strings"
)

// Version identifies the taxonomy revision embedded in this build.
const Version = "schedule-c-2025.1"

// ErrUnknownCategory indicates a lookup for a category id outside the taxonomy.
var ErrUnknownCategory = errors.New("unknown category")

// Category is a single Schedule C expense line item. Description is the
// guidance text embedded in classification prompts and shown in the UI.
type Category struct {
	ID          string
	Description string
}

// categories is ordered as the line items appear on Schedule C Part II.
var categories = []Category{
	{ID: "Advertising", Description: "Business advertising and promotion: ads, business cards, flyers, sponsorships, website promotion."},
	{ID: "Car and Truck Expenses", Description: "Vehicle costs for business use: fuel, mileage, parking, tolls, vehicle repairs."},
	{ID: "Commissions and Fees", Description: "Commissions and fees paid to non-employees, such as sales commissions or referral fees."},
	{ID: "Contract Labor", Description: "Payments to independent contractors for services performed for the business."},
	{ID: "Insurance", Description: "Business insurance premiums other than health insurance, such as liability or property coverage."},
	{ID: "Legal and Professional Services", Description: "Fees for accountants, lawyers, tax preparers, and other professional consultants."},
	{ID: "Office Expense", Description: "General office costs: printer paper, ink, postage, stationery, small office consumables."},
	{ID: "Rent or Lease", Description: "Rent or lease payments for business property, vehicles, machinery, or equipment."},
	{ID: "Repairs and Maintenance", Description: "Repairs and upkeep of business property and equipment that do not add value or prolong life."},
	{ID: "Supplies", Description: "Materials and supplies consumed in the business that are not office consumables or inventory."},
	{ID: "Taxes and Licenses", Description: "Business taxes, licenses, permits, and regulatory fees."},
	{ID: "Travel", Description: "Business travel away from home: airfare, lodging, train or taxi fares while traveling."},
	{ID: "Meals", Description: "Business meals with clients or while traveling for business; generally limited deductibility."},
	{ID: "Utilities", Description: "Business utilities: electricity, water, phone service, internet for business premises."},
	{ID: "Other Expenses", Description: "Ordinary and necessary business expenses that fit no other Schedule C line, such as software subscriptions, bank fees, or professional development."},
}

// All returns every category in a stable order across calls.
// The returned slice is a copy; callers may not mutate the taxonomy.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Names returns the category ids in taxonomy order.
func Names() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.ID
	}
	return out
}

// Lookup returns the category with the given id, or ErrUnknownCategory.
// Matching is exact; use Normalize for tolerant matching of model output.
func Lookup(id string) (Category, error) {
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrUnknownCategory
}

// Normalize resolves a model-suggested category name to its canonical
// taxonomy entry, tolerating case differences and surrounding whitespace.
// It never falls back to a default: an unrecognized name reports false, since
// coercing a wrong category carries audit liability.
func Normalize(suggested string) (Category, bool) {
	suggested = strings.TrimSpace(suggested)
	if suggested == "" {
		return Category{}, false
	}
	for _, c := range categories {
		if strings.EqualFold(c.ID, suggested) {
			return c, true
		}
	}
	return Category{}, false
}
