package domain

// CartItem is a line of the cart. Price is the unit price captured when
// the item was added; it is never re-fetched.
type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

// Subtotal returns price x quantity for the line.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Cart is the ordered sequence of line items.
type Cart []CartItem

// Total is the sum of price x quantity over every line.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c {
		total += item.Subtotal()
	}
	return total
}

// ItemCount is the sum of quantities over every line.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c {
		count += item.Quantity
	}
	return count
}

// IndexOf returns the position of the line with the given product id, or -1.
func (c Cart) IndexOf(id string) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with c.
// A nil cart clones to an empty, non-nil cart so it serializes as [].
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Normalize drops lines with a non-positive quantity or an empty id and
// folds duplicate ids into the first occurrence. Data read from storage or
// from the remote mirror goes through here before it becomes cart state.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if idx := out.IndexOf(item.ID); idx >= 0 {
			out[idx].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
