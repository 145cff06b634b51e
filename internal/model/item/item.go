package item

// Item is the single record type persisted by the service.
type Item struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// NextID returns the identifier the next created item receives: one past the
// largest id currently stored, or 1 for an empty collection. Ids freed by
// deleting the highest item are handed out again.
func NextID(items []Item) int {
	maxID := 0
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	return maxID + 1
}

// IndexOf returns the position of the first item with the given id, or -1.
func IndexOf(items []Item, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.Description != nil {
			desc := *it.Description
			out[i].Description = &desc
		}
	}
	return out
}
