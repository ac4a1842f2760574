package item

// Stored is an item as read from storage together with its serialized embedding.
// Search decodes RawEmbedding itself so a corrupt value degrades to "no vector"
// for that one item instead of failing the read.
type Stored struct {
	Item         Item
	RawEmbedding string
}
