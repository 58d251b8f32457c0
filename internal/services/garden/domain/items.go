package domain

import "fmt"

// ItemID identifies one collectible item kind.
type ItemID string

const (
	ItemCoin       ItemID = "coin"
	ItemPaperclip  ItemID = "paperclip"
	ItemFertilizer ItemID = "fertilizer"
	ItemPostcard   ItemID = "postcard"
)

// PetalItem returns the item id for a flower petal of the given color.
func PetalItem(color string) ItemID {
	return ItemID("petal-" + color)
}

// Item describes one catalog entry. Items with ForSale false can only be
// found, never bought.
type Item struct {
	ID          ItemID
	Name        string
	Description string
	Price       int
	ForSale     bool
}

var itemCatalog = buildItemCatalog()

var itemIndex = func() map[ItemID]Item {
	index := make(map[ItemID]Item, len(itemCatalog))
	for _, item := range itemCatalog {
		index[item.ID] = item
	}
	return index
}()

func buildItemCatalog() []Item {
	catalog := []Item{
		{
			ID:          ItemCoin,
			Name:        "coin",
			Description: "A copper coin. Can be used to purchase items at the shop.",
			Price:       1,
		},
		{
			ID:          ItemPaperclip,
			Name:        "paper clip",
			Description: "A length of wire bent into flat loops. Origin unknown.",
		},
		{
			ID:          ItemFertilizer,
			Name:        "EZ-Grow fertilizer",
			Description: "A bottle of plant fertilizer. When applied, will increase plant growth rate by 1.5x for 3 days.",
			Price:       75,
			ForSale:     true,
		},
		{
			ID:          ItemPostcard,
			Name:        "postcard",
			Description: "A blank postcard. Can be used to send a private message to another gardener.",
			Price:       20,
			ForSale:     true,
		},
	}
	for _, color := range append(append([]string{}, ColorsPlain...), "white", "black", "gold") {
		article := "a"
		if color == "orange" || color == "indigo" {
			article = "an"
		}
		catalog = append(catalog, Item{
			ID:          PetalItem(color),
			Name:        fmt.Sprintf("flower petal [%s]", color),
			Description: fmt.Sprintf("A single flower petal from %s %s plant. Graceful, delicate, and reserved.", article, color),
		})
	}
	return catalog
}

// ItemByID looks up a catalog item.
func ItemByID(id ItemID) (Item, bool) {
	item, ok := itemIndex[id]
	return item, ok
}

// Catalog returns the full item catalog in stable order.
func Catalog() []Item {
	return append([]Item(nil), itemCatalog...)
}

// InventoryEntry pairs a held item with its quantity.
type InventoryEntry struct {
	Item     Item
	Quantity int
}
