package catalog

import (
	"context"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// StaticCatalog serves the built-in produce catalog. Order is significant:
// name matching takes the first hit, so more specific names come first.
type StaticCatalog struct {
	products []domain.Product
}

// NewStaticCatalog creates a catalog over products, or the built-in list when products is nil
func NewStaticCatalog(products []domain.Product) *StaticCatalog {
	if products == nil {
		products = defaultProducts()
	}
	return &StaticCatalog{products: products}
}

// List returns a copy of the catalog in stable order
func (c *StaticCatalog) List(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// Get looks a product up by ID
func (c *StaticCatalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	for i := range c.products {
		if c.products[i].ID == id {
			p := c.products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func product(id, name, group, unit, price string) domain.Product {
	return domain.Product{
		ID:               id,
		Name:             name,
		Category:         group,
		Unit:             unit,
		DefaultUnitPrice: decimal.RequireFromString(price),
		ImageURL:         "/images/produce/" + id + ".jpg",
	}
}

func defaultProducts() []domain.Product {
	return []domain.Product{
		product("veg-roma-tomato", "Roma Tomatoes", "Vegetables", "kg", "3.90"),
		product("veg-cherry-tomato", "Cherry Tomatoes", "Vegetables", "punnet", "2.80"),
		product("veg-iceberg", "Iceberg Lettuce", "Vegetables", "each", "2.60"),
		product("veg-cos", "Cos Lettuce", "Vegetables", "each", "2.40"),
		product("veg-baby-spinach", "Baby Spinach", "Vegetables", "kg", "8.80"),
		product("veg-brown-onion", "Brown Onions", "Vegetables", "kg", "1.70"),
		product("veg-red-onion", "Red Onions", "Vegetables", "kg", "2.20"),
		product("veg-potato", "Washed Potatoes", "Vegetables", "kg", "1.50"),
		product("veg-carrot", "Carrots", "Vegetables", "kg", "1.40"),
		product("veg-capsicum", "Red Capsicum", "Vegetables", "kg", "6.90"),
		product("veg-cucumber", "Lebanese Cucumber", "Vegetables", "kg", "4.20"),
		product("veg-mushroom", "Cup Mushrooms", "Vegetables", "kg", "9.50"),
		product("fruit-avocado", "Hass Avocados", "Fruit", "each", "2.00"),
		product("fruit-lemon", "Lemons", "Fruit", "kg", "5.10"),
		product("fruit-lime", "Limes", "Fruit", "kg", "7.40"),
		product("fruit-banana", "Bananas", "Fruit", "kg", "3.10"),
		product("fruit-strawberry", "Strawberries", "Fruit", "punnet", "3.50"),
		product("herb-basil", "Basil", "Herbs", "bunch", "2.30"),
		product("herb-parsley", "Flat Leaf Parsley", "Herbs", "bunch", "1.90"),
		product("herb-coriander", "Coriander", "Herbs", "bunch", "2.10"),
		product("dairy-eggs", "Free Range Eggs", "Dairy", "dozen", "6.20"),
	}
}
