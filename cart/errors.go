package cart

// Error message constants for the cart.
const (
	ErrMsgInsufficientStock  = "Insufficient stock for %s. Available stock: %d"
	ErrMsgLineNotFound       = "Line does not exist"
	ErrMsgProductRequired    = "Product is required"
	ErrMsgProductInCart      = "%s is already in the cart"
	ErrMsgQuantityPositive   = "Quantity must be at least 1"
	ErrMsgPricePositive      = "Unit price must be greater than zero"
	ErrMsgPricePrecision     = "Unit price can have at most two decimals"
	ErrMsgLineNoProduct      = "Line %d has no product selected"
	ErrMsgLineQuantity       = "Line %d: quantity must be at least 1"
	ErrMsgLinePrice          = "Line %d: unit price must be greater than zero with at most two decimals"
	ErrMsgLineSubtotal       = "Line %d: subtotal does not match quantity and price"
	ErrMsgCartEmpty          = "Add at least one product to the sale"
	ErrMsgUnknownProductName = "product %d"
)
