package cart

import "storefront/internal/model"

// The helpers below implement the whole-array rewrite the embedded cart
// relies on: every mutation derives a fresh CartLines value which then
// replaces the column in one update.

// upsertLine adds qty to an existing line or appends a new one.
func upsertLine(lines model.CartLines, productID uint, qty int) model.CartLines {
	out := make(model.CartLines, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity += qty
			return out
		}
	}
	return append(out, model.CartLine{ProductID: productID, Quantity: qty})
}

// setQuantity replaces a line's quantity; qty <= 0 removes the line. The
// second return value reports whether the line existed.
func setQuantity(lines model.CartLines, productID uint, qty int) (model.CartLines, bool) {
	if qty <= 0 {
		return removeLine(lines, productID)
	}
	out := make(model.CartLines, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = qty
			return out, true
		}
	}
	return out, false
}

// removeLine drops the line for productID. The second return value reports
// whether the line existed.
func removeLine(lines model.CartLines, productID uint) (model.CartLines, bool) {
	out := make(model.CartLines, 0, len(lines))
	found := false
	for _, l := range lines {
		if l.ProductID == productID {
			found = true
			continue
		}
		out = append(out, l)
	}
	return out, found
}
