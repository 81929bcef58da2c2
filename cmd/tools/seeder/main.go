package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/storefront/internal/pricing"
	"github.com/noah-isme/storefront/internal/store"
)

type seedProduct struct {
	Title    string
	Brand    string
	Category string
	Regular  pricing.Money
	Original pricing.Money
	Stock    int
	Ratings  pricing.Histogram
	Sale     pricing.Money
}

// productDetails holds the product page extras for a few demo products,
// keyed by title. Products missing here get the column defaults.
var productDetails = map[string]store.Product{
	"Wireless Earbuds": {
		DetailedDescription: text("Active noise cancellation, 30 hour battery with the case and IPX5 sweat resistance."),
		Specifications:      map[string]any{"bluetooth": "5.3", "battery_life": "30 hours", "weight": "48 g"},
		Warranty:            text("1 year manufacturer warranty"),
		ReplacementReturn:   &store.ReplacementReturn{Available: true, Days: 7},
		Colors:              map[string]string{"black": "https://picsum.photos/seed/buds-black/600", "white": "https://picsum.photos/seed/buds-white/600"},
		DeliveryFree:        true,
		CODAvailable:        true,
	},
	"Smartwatch Active": {
		DetailedDescription: text("AMOLED display, heart rate and SpO2 tracking, 100 sport modes."),
		Specifications:      map[string]any{"display": "1.43 inch AMOLED", "water_resistance": "5 ATM"},
		Warranty:            text("1 year manufacturer warranty"),
		ReplacementReturn:   &store.ReplacementReturn{Available: true, Days: 10},
		VideoURL:            text("https://www.youtube.com/embed/dQw4w9WgXcQ"),
		DeliveryFree:        true,
	},
	"Cotton Kurta": {
		Specifications:    map[string]any{"fabric": "100% cotton", "fit": "regular"},
		ReplacementReturn: &store.ReplacementReturn{Available: false},
		Colors:            map[string]string{"indigo": "https://picsum.photos/seed/kurta-indigo/600"},
		CODAvailable:      true,
	},
}

func text(s string) *string { return &s }

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedCategories(ctx, db)
	sellerID := seedSeller(ctx, db)
	onSale := seedProducts(ctx, db, sellerID)
	seedEvent(ctx, db, sellerID, onSale)
	seedBanners(ctx, db)

	log.Println("Seeding completed successfully!")
}

func seedCategories(ctx context.Context, db *pgxpool.Pool) {
	log.Println("Seeding Categories...")
	for i, name := range []string{"Electronics", "Fashion", "Beauty & Health", "Books", "Automotive", "Home", "Sports", "Games"} {
		_, err := db.Exec(ctx, `
			INSERT INTO categories (name, display_order)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET display_order = EXCLUDED.display_order`, name, i)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", name, err)
		}
	}
}

func seedSeller(ctx context.Context, db *pgxpool.Pool) string {
	const sellerID = "6f1c1b52-8c8e-4f0e-9a43-3d1f2a0c5e11"
	log.Println("Seeding Seller...")
	_, err := db.Exec(ctx, `
		INSERT INTO sellers (id, business_name, name, status)
		VALUES ($1, 'Demo Electronics', 'Demo Seller', 'approved')
		ON CONFLICT (id) DO NOTHING`, sellerID)
	if err != nil {
		log.Fatalf("Failed to seed seller: %v", err)
	}
	return sellerID
}

// seedProducts inserts the demo catalog and returns the ids of products that
// join the sale event, mapped to their event price.
func seedProducts(ctx context.Context, db *pgxpool.Pool, sellerID string) map[string]pricing.Money {
	products := []seedProduct{
		{"Wireless Earbuds", "Sonic", "Electronics", pricing.Rupees(999), pricing.Rupees(1999), 40, pricing.Histogram{5: 120, 4: 40, 3: 8, 2: 2, 1: 5}, pricing.Rupees(799)},
		{"Smartwatch Active", "Pulse", "Electronics", pricing.Rupees(2499), pricing.Rupees(3999), 15, pricing.Histogram{5: 12, 4: 3}, pricing.Rupees(1999)},
		{"USB-C Cable 1m", "Volt", "Electronics", pricing.Rupees(149), 0, 200, pricing.Histogram{4: 30, 3: 5}, 0},
		{"Cotton Kurta", "Loom", "Fashion", pricing.Rupees(699), pricing.Rupees(1299), 25, pricing.Histogram{5: 8}, 0},
		{"Running Shoes", "Stride", "Sports", pricing.Rupees(1899), pricing.Rupees(2999), 10, nil, pricing.Rupees(1499)},
		{"Face Serum", "Glow", "Beauty & Health", pricing.Rupees(449), pricing.Rupees(599), 60, pricing.Histogram{5: 50, 4: 20, 1: 3}, 0},
		{"Mystery Novel", "Inkwell", "Books", pricing.Rupees(299), 0, 0, pricing.Histogram{5: 21}, 0},
	}

	log.Println("Seeding Products...")
	onSale := make(map[string]pricing.Money)
	for _, p := range products {
		if p.Ratings == nil {
			p.Ratings = pricing.Histogram{}
		}
		ratings, err := json.Marshal(p.Ratings)
		if err != nil {
			log.Printf("Failed to encode ratings for %s: %v", p.Title, err)
			continue
		}
		var original *pricing.Money
		if p.Original > 0 {
			original = pricing.Ptr(p.Original)
		}
		d := productDetails[p.Title]
		if d.Specifications == nil {
			d.Specifications = map[string]any{}
		}
		if d.Colors == nil {
			d.Colors = map[string]string{}
		}
		var id string
		err = db.QueryRow(ctx, `
			INSERT INTO products (seller_id, title, brand, category, regular_price, original_price, stock, ratings, authorized_by_platform,
				detailed_description, specifications, warranty, replacement_return, video_url, colors, delivery_free, cod_available)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id`,
			sellerID, p.Title, p.Brand, p.Category, p.Regular, original, p.Stock, ratings,
			d.DetailedDescription, d.Specifications, d.Warranty, d.ReplacementReturn, d.VideoURL, d.Colors, d.DeliveryFree, d.CODAvailable,
		).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Title, err)
			continue
		}
		if p.Sale > 0 {
			onSale[id] = p.Sale
		}
	}
	return onSale
}

func seedEvent(ctx context.Context, db *pgxpool.Pool, sellerID string, onSale map[string]pricing.Money) {
	log.Println("Seeding Sale Event...")
	now := time.Now().UTC()
	var eventID string
	err := db.QueryRow(ctx, `
		INSERT INTO events (title, start_date, end_date)
		VALUES ('Mega Weekend Sale', $1, $2)
		RETURNING id`, now.Add(-time.Hour), now.Add(72*time.Hour)).Scan(&eventID)
	if err != nil {
		log.Printf("Failed to seed event: %v", err)
		return
	}
	for productID, price := range onSale {
		_, err := db.Exec(ctx, `
			INSERT INTO event_products (event_id, product_id, shop_id, event_price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id, product_id) DO NOTHING`,
			eventID, productID, sellerID, price)
		if err != nil {
			log.Printf("Failed to enrol product %s in event: %v", productID, err)
		}
	}
}

func seedBanners(ctx context.Context, db *pgxpool.Pool) {
	banners := []struct {
		Title string
		Image string
		Route string
	}{
		{"Mega Weekend Sale", "https://cdn.example.com/banners/mega-sale.jpg", "/events"},
		{"New in Fashion", "https://cdn.example.com/banners/fashion.jpg", "/categories/Fashion"},
		{"Top Rated Gadgets", "https://cdn.example.com/banners/gadgets.jpg", "/categories/Electronics"},
	}

	log.Println("Seeding Banners...")
	for i, b := range banners {
		_, err := db.Exec(ctx, `
			INSERT INTO banners (title, image_url, click_route, display_order)
			VALUES ($1, $2, $3, $4)`, b.Title, b.Image, b.Route, i)
		if err != nil {
			log.Printf("Failed to seed banner %s: %v", b.Title, err)
		}
	}
}
