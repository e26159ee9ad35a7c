package gobjaverse

import (
	"fmt"
	"strings"
)

const AllCategories = "all"

var Categories = []string{
	"Human-Shape", "Animals", "Daily-Used", "Furnitures",
	"Buildings-Outdoor", "Transportations", "Plants",
	"Food", "Electronics",
}

func ValidateCategory(category string) error {
	if category == AllCategories {
		return nil
	}
	for _, c := range Categories {
		if c == category {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (supported: %s or %q)", ErrUnsupportedCategory, category, strings.Join(Categories, ", "), AllCategories)
}

func IndexURL(baseURL, category string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if category == AllCategories {
		return baseURL + "/gobjaverse_280k.json"
	}
	return baseURL + "/gobjaverse_280k_split/gobjaverse_280k_" + category + ".json"
}

func SubsetFileName(numObjects int) string {
	return fmt.Sprintf("gobjaverse_subset_%d.json", numObjects)
}
