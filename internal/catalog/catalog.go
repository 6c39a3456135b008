package catalog

import (
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image"`
}

// Item snapshots the product as a cart line. The price is captured at add
// time and does not follow later catalogue changes.
func (p Product) Item(quantity int) domain.CartItem {
	return domain.CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: quantity,
		Image:    p.ImageURL,
	}
}

var products = []Product{
	{
		ID:          "1",
		Name:        "Notebook Gamer Pro",
		Description: "Notebook gamer com placa de vídeo dedicada",
		Price:       2999.99,
		ImageURL:    "https://images.unsplash.com/photo-1593642632823-8f785ba67e45?w=300&h=300&fit=crop",
	},
	{
		ID:          "2",
		Name:        "Smartphone Premium",
		Description: "Smartphone com câmera profissional",
		Price:       1599.99,
		ImageURL:    "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?w=300&h=300&fit=crop",
	},
	{
		ID:          "3",
		Name:        "Tablet Ultra HD",
		Description: "Tablet com tela de alta resolução",
		Price:       899.99,
		ImageURL:    "https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=300&h=300&fit=crop",
	},
	{
		ID:          "4",
		Name:        "Smartwatch Fitness",
		Description: "Relógio inteligente com monitoramento de saúde",
		Price:       499.99,
		ImageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=300&h=300&fit=crop",
	},
	{
		ID:          "5",
		Name:        "Fone Bluetooth Premium",
		Description: "Fone de ouvido sem fio com cancelamento de ruído",
		Price:       299.99,
		ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=300&h=300&fit=crop",
	},
	{
		ID:          "6",
		Name:        "Câmera Digital 4K",
		Description: "Câmera digital profissional 4K",
		Price:       1899.99,
		ImageURL:    "https://images.unsplash.com/photo-1502920917128-1aa500764cbd?w=300&h=300&fit=crop",
	},
}

// All returns the listing in display order.
func All() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

func Lookup(id string) (Product, error) {
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}
