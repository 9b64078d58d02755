package domain

import "sort"

type GroceryList struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

type GroceryItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsChecked bool   `json:"isChecked"`
	Timestamp int64  `json:"timestamp"`
	ImageURL  string `json:"imageUrl"`
}

// SortItems puts unchecked items first, newest first within each group.
func SortItems(items []GroceryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsChecked != items[j].IsChecked {
			return !items[i].IsChecked
		}
		return items[i].Timestamp > items[j].Timestamp
	})
}
