package domain

import "fmt"

// Document store layout, all scoped to one user:
//
//	users/{userID}/groceryLists/{listID}
//	users/{userID}/groceryLists/{listID}/items/{itemID}

func ListsPath(userID string) string {
	return "users/" + userID + "/groceryLists"
}

func ListPath(userID, listID string) string {
	return ListsPath(userID) + "/" + listID
}

func ListIDPath(userID, listID string) string {
	return ListPath(userID, listID) + "/id"
}

func ListNamePath(userID, listID string) string {
	return ListPath(userID, listID) + "/name"
}

func ItemsPath(userID, listID string) string {
	return ListPath(userID, listID) + "/items"
}

func ItemPath(userID, listID, itemID string) string {
	return ItemsPath(userID, listID) + "/" + itemID
}

func ItemIDPath(userID, listID, itemID string) string {
	return ItemPath(userID, listID, itemID) + "/id"
}

func ItemCheckedPath(userID, listID, itemID string) string {
	return ItemPath(userID, listID, itemID) + "/isChecked"
}

// ItemImageKey is the blob key for an item photo taken at millis.
func ItemImageKey(userID string, millis int64, ext string) string {
	return fmt.Sprintf("users/%s/items/item_%d%s", userID, millis, ext)
}
