// Package apitest runs an in-memory imitation of the sales backend for tests.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"salesdesk/api"
)

type account struct {
	password string
	user     api.AuthUser
}

type failure struct {
	status  int
	message string
}

// Backend is a fake sales backend. Seed it through the Add* methods before use.
type Backend struct {
	mu sync.Mutex

	categories []api.Category
	products   []*api.Product
	clients    []api.Customer
	sales      []api.Sale
	accounts   map[string]account

	token       string
	requireAuth bool

	nextClientID int64
	nextSaleID   int64

	failures map[string]failure
	calls    map[string]int

	server *httptest.Server
}

// New starts a backend and stops it when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		accounts:     make(map[string]account),
		token:        "test-token",
		nextClientID: 100,
		nextSaleID:   1000,
		failures:     make(map[string]failure),
		calls:        make(map[string]int),
	}
	b.server = httptest.NewServer(b.Handler())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API root to hand to api.NewClient.
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

// Token is the bearer token issued by Login.
func (b *Backend) Token() string {
	return b.token
}

// RequireAuth makes every route except login demand the issued bearer token.
func (b *Backend) RequireAuth() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requireAuth = true
}

// AddCategory seeds a category.
func (b *Backend) AddCategory(c api.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories = append(b.categories, c)
}

// AddProduct seeds a product.
func (b *Backend) AddProduct(p api.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := p
	b.products = append(b.products, &cp)
}

// SetStock overwrites a product's stock, imitating a concurrent sale elsewhere.
func (b *Backend) SetStock(productID int64, qty int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.product(productID); p != nil {
		p.Quantity = qty
	}
}

// Stock returns a product's current stock.
func (b *Backend) Stock(productID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.product(productID); p != nil {
		return p.Quantity
	}
	return 0
}

// AddClient seeds a client.
func (b *Backend) AddClient(c api.Customer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients = append(b.clients, c)
}

// AddUser seeds a login.
func (b *Backend) AddUser(username, password string, user api.AuthUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[username] = account{password: password, user: user}
}

// Clients returns a copy of the stored clients.
func (b *Backend) Clients() []api.Customer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Customer(nil), b.clients...)
}

// Sales returns a copy of the stored sales.
func (b *Backend) Sales() []api.Sale {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Sale(nil), b.sales...)
}

// Fail makes the route answer status with {"error": message}. An empty
// message sends no body. Routes are "METHOD /api/path" with gin parameters,
// e.g. "POST /api/ventas" or "GET /api/clientes/:id/:sub".
func (b *Backend) Fail(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, message: message}
}

// Calls reports how many requests reached the route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// Handler builds the gin engine. Routes carry one parameter per level so that
// static segments like "activos" never conflict with ids.
func (b *Backend) Handler() http.Handler {
	r := gin.New()
	r.Use(b.track, b.inject)

	g := r.Group("/api")
	g.POST("/auth/login", b.login)

	authed := g.Group("", b.authenticate)
	authed.GET("/categorias", b.listCategories)
	authed.GET("/categorias/:id", b.categoryRoute)
	authed.GET("/productos/:id", b.productRoute)
	authed.GET("/productos/:id/:sub", b.productSubRoute)
	authed.GET("/clientes", b.listClients)
	authed.GET("/clientes/:id/:sub", b.clientSubRoute)
	authed.POST("/clientes", b.createClient)
	authed.GET("/ventas", b.listSales)
	authed.GET("/ventas/:id", b.saleRoute)
	authed.GET("/ventas/:id/:sub", b.saleSubRoute)
	authed.POST("/ventas", b.createSale)
	authed.PUT("/ventas/:id/cancelar", b.cancelSale)
	return r
}

func routeKey(c *gin.Context) string {
	return c.Request.Method + " " + c.FullPath()
}

func (b *Backend) track(c *gin.Context) {
	b.mu.Lock()
	b.calls[routeKey(c)]++
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) inject(c *gin.Context) {
	b.mu.Lock()
	f, ok := b.failures[routeKey(c)]
	b.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	if f.message == "" {
		c.AbortWithStatus(f.status)
		return
	}
	c.AbortWithStatusJSON(f.status, gin.H{"error": f.message})
}

func (b *Backend) authenticate(c *gin.Context) {
	b.mu.Lock()
	required := b.requireAuth
	b.mu.Unlock()
	if !required {
		c.Next()
		return
	}
	header := c.GetHeader("Authorization")
	if header != "Bearer "+b.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido o ausente"})
		return
	}
	c.Next()
}

func (b *Backend) login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.mu.Lock()
	acct, ok := b.accounts[in.Username]
	b.mu.Unlock()
	if !ok || acct.password != in.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
		return
	}
	c.JSON(http.StatusOK, api.AuthResponse{Token: b.token, User: acct.user})
}

func (b *Backend) listCategories(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, append([]api.Category{}, b.categories...))
}

func (b *Backend) categoryRoute(c *gin.Context) {
	if c.Param("id") != "activas" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Categoría no encontrada"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []api.Category{}
	for _, cat := range b.categories {
		if cat.Status == "" || cat.Status == "ACTIVO" {
			out = append(out, cat)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) productRoute(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch c.Param("id") {
	case "activos":
		c.JSON(http.StatusOK, b.filterProducts(func(p *api.Product) bool {
			return p.Status == "" || p.Status == "ACTIVO"
		}))
	case "buscar":
		q := strings.ToLower(c.Query("nombre"))
		c.JSON(http.StatusOK, b.filterProducts(func(p *api.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), q)
		}))
	case "bajo-stock":
		c.JSON(http.StatusOK, b.filterProducts(func(p *api.Product) bool {
			return p.Quantity <= p.MinStock
		}))
	default:
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		p := b.product(id)
		if err != nil || p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (b *Backend) productSubRoute(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("sub"), 10, 64)
	if c.Param("id") != "categoria" || err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.filterProducts(func(p *api.Product) bool {
		return p.CategoryID == categoryID
	}))
}

func (b *Backend) listClients(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, append([]api.Customer{}, b.clients...))
}

func (b *Backend) clientSubRoute(c *gin.Context) {
	if c.Param("id") != "dni" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cl := range b.clients {
		if cl.DNI == c.Param("sub") {
			c.JSON(http.StatusOK, cl)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Cliente no encontrado"})
}

func (b *Backend) createClient(c *gin.Context) {
	var in struct {
		Name    string `json:"nombre" binding:"required,max=100"`
		DNI     string `json:"dni" binding:"required,len=8,numeric"`
		Email   string `json:"correo" binding:"omitempty,email"`
		Phone   string `json:"telefono" binding:"omitempty,len=9,numeric"`
		Address string `json:"direccion" binding:"max=150"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cl := range b.clients {
		if cl.DNI == in.DNI {
			c.JSON(http.StatusConflict, gin.H{"error": "Ya existe un cliente con el DNI " + in.DNI})
			return
		}
	}
	b.nextClientID++
	created := api.Customer{
		ID:      b.nextClientID,
		Name:    in.Name,
		DNI:     in.DNI,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	}
	b.clients = append(b.clients, created)
	c.JSON(http.StatusCreated, created)
}

func (b *Backend) listSales(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, append([]api.Sale{}, b.sales...))
}

func (b *Backend) saleRoute(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.Param("id") == "hoy" {
		c.JSON(http.StatusOK, append([]api.Sale{}, b.sales...))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		if s := b.sale(id); s != nil {
			c.JSON(http.StatusOK, s)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Venta no encontrada"})
}

func (b *Backend) saleSubRoute(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Param("sub"), 10, 64)
	if c.Param("id") != "cliente" || err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []api.Sale{}
	for _, s := range b.sales {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	c.JSON(http.StatusOK, out)
}

type saleLineInput struct {
	ProductID int64           `json:"productoId" binding:"required"`
	Quantity  int             `json:"cantidad" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"precioUnitario"`
}

func (b *Backend) createSale(c *gin.Context) {
	var in struct {
		ClientID      int64           `json:"clienteId" binding:"required"`
		UserID        int64           `json:"usuarioId" binding:"required"`
		PaymentMethod string          `json:"tipoPago" binding:"required"`
		Lines         []saleLineInput `json:"detalles" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var client *api.Customer
	for _, cl := range b.clients {
		if cl.ID == in.ClientID {
			found := cl
			client = &found
		}
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cliente no encontrado"})
		return
	}

	for _, l := range in.Lines {
		p := b.product(l.ProductID)
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Producto %d no encontrado", l.ProductID)})
			return
		}
		if p.Quantity < l.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Stock insuficiente para %s", p.Name)})
			return
		}
	}

	b.nextSaleID++
	sale := api.Sale{
		ID:            b.nextSaleID,
		ClientID:      in.ClientID,
		UserID:        in.UserID,
		Status:        api.SaleCompleted,
		PaymentMethod: in.PaymentMethod,
		Total:         decimal.Zero,
		Client:        client,
	}
	for _, l := range in.Lines {
		p := b.product(l.ProductID)
		price := l.UnitPrice
		if !price.IsPositive() {
			price = p.SalePrice
		}
		p.Quantity -= l.Quantity
		subtotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		sale.Total = sale.Total.Add(subtotal)
		sale.Lines = append(sale.Lines, api.SaleLine{
			Quantity:  l.Quantity,
			UnitPrice: price,
			Subtotal:  subtotal,
			ProductID: l.ProductID,
			Product:   &api.Product{ID: p.ID, Name: p.Name},
		})
	}
	b.sales = append(b.sales, sale)
	c.JSON(http.StatusCreated, sale)
}

func (b *Backend) cancelSale(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Id inválido"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sale(id)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Venta no encontrada"})
		return
	}
	if s.Status == api.SaleCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La venta ya está cancelada"})
		return
	}
	for _, l := range s.Lines {
		if p := b.product(l.ProductID); p != nil {
			p.Quantity += l.Quantity
		}
	}
	s.Status = api.SaleCancelled
	c.Status(http.StatusOK)
}

// product and sale expect b.mu to be held.

func (b *Backend) product(id int64) *api.Product {
	for _, p := range b.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (b *Backend) sale(id int64) *api.Sale {
	for i := range b.sales {
		if b.sales[i].ID == id {
			return &b.sales[i]
		}
	}
	return nil
}

func (b *Backend) filterProducts(keep func(*api.Product) bool) []api.Product {
	out := []api.Product{}
	for _, p := range b.products {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}
