package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Category is an active product category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	Status      string `json:"estado,omitempty"`
}

// Product is a catalog entry as served by the products endpoints.
// Quantity is the stock the server reported at fetch time.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"nombre"`
	Description   string          `json:"descripcion,omitempty"`
	Quantity      int             `json:"cantidad"`
	PurchasePrice decimal.Decimal `json:"precioCompra"`
	SalePrice     decimal.Decimal `json:"precioVenta"`
	Unit          string          `json:"unidad,omitempty"`
	Status        string          `json:"estado,omitempty"`
	CategoryID    int64           `json:"categoriaId"`
	MinStock      int             `json:"stockMinimo"`
	CategoryName  string          `json:"categoriaNombre,omitempty"`
}

// Customer is a client record. Optional fields are empty strings when unset.
type Customer struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"nombre"`
	DNI          string `json:"dni"`
	Email        string `json:"correo,omitempty"`
	Phone        string `json:"telefono,omitempty"`
	Address      string `json:"direccion,omitempty"`
	RegisteredAt string `json:"fechaRegistro,omitempty"`
}

// User is the seller attached to a sale.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"nombre"`
	Username string `json:"nombreUsuario"`
	Role     string `json:"rol"`
	Status   string `json:"estado"`
}

// Sale status values reported by the server.
const (
	SaleCompleted = "COMPLETADA"
	SaleCancelled = "CANCELADA"
)

// Sale is a persisted sale. Total is computed by the server.
type Sale struct {
	ID            int64           `json:"id"`
	Date          string          `json:"fecha,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ClientID      int64           `json:"clienteId"`
	UserID        int64           `json:"usuarioId"`
	Status        string          `json:"estado"`
	PaymentMethod string          `json:"tipoPago"`
	Lines         []SaleLine      `json:"detalles"`
	Client        *Customer       `json:"cliente,omitempty"`
	User          *User           `json:"usuario,omitempty"`
}

// SaleLine is one persisted line of a sale.
type SaleLine struct {
	ID        int64           `json:"id,omitempty"`
	Quantity  int             `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precioUnitario"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ProductID int64           `json:"productoId"`
	Product   *Product        `json:"producto,omitempty"`
}

// SaleRequest is the single-use payload that creates a sale.
type SaleRequest struct {
	ClientID      int64             `json:"clienteId"`
	UserID        int64             `json:"usuarioId"`
	PaymentMethod string            `json:"tipoPago"`
	Lines         []SaleLineRequest `json:"detalles"`
}

// SaleLineRequest is one requested line of a sale.
type SaleLineRequest struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// MarshalJSON sends the unit price as a JSON number with two decimals. A price
// with finer precision is sent exactly, never rounded.
func (l SaleLineRequest) MarshalJSON() ([]byte, error) {
	price := l.UnitPrice.StringFixed(2)
	if !l.UnitPrice.Equal(l.UnitPrice.Round(2)) {
		price = l.UnitPrice.String()
	}
	return json.Marshal(struct {
		ProductID int64       `json:"productoId"`
		Quantity  int         `json:"cantidad"`
		UnitPrice json.Number `json:"precioUnitario"`
	}{
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: json.Number(price),
	})
}

// UnmarshalJSON accepts the price as either a number or a quoted string.
func (l *SaleLineRequest) UnmarshalJSON(data []byte) error {
	var wire struct {
		ProductID int64           `json:"productoId"`
		Quantity  int             `json:"cantidad"`
		UnitPrice decimal.Decimal `json:"precioUnitario"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	l.ProductID = wire.ProductID
	l.Quantity = wire.Quantity
	l.UnitPrice = wire.UnitPrice
	return nil
}

// LoginRequest carries credentials for the auth endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthUser is the user record returned on login.
type AuthUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"nombre"`
	Username string `json:"username"`
	Role     string `json:"rol"`
}

// AuthResponse is the login result.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"usuario"`
}
