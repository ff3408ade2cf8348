package main

import (
    "fmt"

    "github.com/shopspring/decimal"
    "golang.org/x/crypto/bcrypt"

    "github.com/d60-Lab/gomall/config"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func hash(pw string) string {
    return string(must(bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)))
}

func dec(s string) decimal.Decimal { return must(decimal.NewFromString(s)) }

func main() {
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    if err := database.Migrate(db); err != nil {
        panic(err)
    }

    var userCount int64
    _ = db.Model(&model.User{}).Count(&userCount).Error
    if userCount > 0 {
        fmt.Println("database already initialized")
        return
    }

    fmt.Println("creating sample data...")

    admin := model.User{
        Email: "admin@gomall.dev", Username: "admin",
        PasswordHash: hash("admin123"),
        FirstName:    "Admin", LastName: "User", Phone: "9999999999",
        IsActive: true, IsAdmin: true,
    }
    john := model.User{
        Email: "john@example.com", Username: "john_doe",
        PasswordHash: hash("password123"),
        FirstName:    "John", LastName: "Doe", Phone: "9876543210",
        IsActive: true,
    }
    jane := model.User{
        Email: "jane@example.com", Username: "jane_smith",
        PasswordHash: hash("password123"),
        FirstName:    "Jane", LastName: "Smith", Phone: "9876543211",
        IsActive: true,
    }
    must(0, db.Create(&admin).Error)
    must(0, db.Create(&john).Error)
    must(0, db.Create(&jane).Error)
    fmt.Println("created 3 users")

    categories := []model.Category{
        {Name: "Electronics", Description: "Electronic items and gadgets", IsActive: true},
        {Name: "Fashion", Description: "Clothing and accessories", IsActive: true},
        {Name: "Home & Kitchen", Description: "Home and kitchen appliances", IsActive: true},
        {Name: "Books", Description: "Books and magazines", IsActive: true},
        {Name: "Sports", Description: "Sports and fitness equipment", IsActive: true},
    }
    must(0, db.Create(&categories).Error)
    fmt.Printf("created %d categories\n", len(categories))

    products := []model.Product{
        {
            Name: "iPhone 15 Pro", Description: "Latest Apple iPhone with advanced camera system",
            Price: dec("129900"), DiscountPercentage: dec("10"), CategoryID: &categories[0].ID,
            Brand: "Apple", StockQuantity: 50, SKU: "IPHONE15PRO",
            ImageURL: "https://via.placeholder.com/300x300?text=iPhone+15+Pro",
            IsActive: true, Rating: dec("4.5"),
        },
        {
            Name: "Samsung Galaxy S24", Description: "Premium Android smartphone with AI features",
            Price: dec("99900"), DiscountPercentage: dec("15"), CategoryID: &categories[0].ID,
            Brand: "Samsung", StockQuantity: 75, SKU: "GALAXYS24",
            ImageURL: "https://via.placeholder.com/300x300?text=Galaxy+S24",
            IsActive: true, Rating: dec("4.3"),
        },
        {
            Name: "Sony WH-1000XM5", Description: "Premium noise cancelling headphones",
            Price: dec("29990"), DiscountPercentage: dec("20"), CategoryID: &categories[0].ID,
            Brand: "Sony", StockQuantity: 100, SKU: "SONYWH1000XM5",
            ImageURL: "https://via.placeholder.com/300x300?text=Sony+Headphones",
            IsActive: true, Rating: dec("4.7"),
        },
        {
            Name: "Levi's Men's Jeans", Description: "Classic fit denim jeans",
            Price: dec("2999"), DiscountPercentage: dec("30"), CategoryID: &categories[1].ID,
            Brand: "Levi's", StockQuantity: 200, SKU: "LEVIS501",
            ImageURL: "https://via.placeholder.com/300x300?text=Levis+Jeans",
            IsActive: true, Rating: dec("4.2"),
        },
        {
            Name: "Nike Air Max Shoes", Description: "Comfortable running shoes with air cushioning",
            Price: dec("8999"), DiscountPercentage: dec("25"), CategoryID: &categories[1].ID,
            Brand: "Nike", StockQuantity: 150, SKU: "NIKEAIRMAX",
            ImageURL: "https://via.placeholder.com/300x300?text=Nike+Air+Max",
            IsActive: true, Rating: dec("4.6"),
        },
        {
            Name: "Instant Pot Duo", Description: "7-in-1 electric pressure cooker",
            Price: dec("6999"), DiscountPercentage: dec("15"), CategoryID: &categories[2].ID,
            Brand: "Instant Pot", StockQuantity: 80, SKU: "INSTANTPOT7IN1",
            ImageURL: "https://via.placeholder.com/300x300?text=Instant+Pot",
            IsActive: true, Rating: dec("4.5"),
        },
        {
            Name: "Philips Air Fryer", Description: "Healthier cooking with rapid air technology",
            Price: dec("9999"), DiscountPercentage: dec("20"), CategoryID: &categories[2].ID,
            Brand: "Philips", StockQuantity: 60, SKU: "PHILIPSAIRFRYER",
            ImageURL: "https://via.placeholder.com/300x300?text=Air+Fryer",
            IsActive: true, Rating: dec("4.4"),
        },
        {
            Name: "Atomic Habits by James Clear", Description: "Bestselling book on building good habits",
            Price: dec("399"), DiscountPercentage: dec("10"), CategoryID: &categories[3].ID,
            Brand: "Penguin Random House", StockQuantity: 500, SKU: "ATOMICHABITS",
            ImageURL: "https://via.placeholder.com/300x300?text=Atomic+Habits",
            IsActive: true, Rating: dec("4.8"),
        },
        {
            Name: "Yoga Mat Premium", Description: "Non-slip exercise mat for yoga and fitness",
            Price: dec("1299"), DiscountPercentage: dec("15"), CategoryID: &categories[4].ID,
            Brand: "FitGear", StockQuantity: 300, SKU: "YOGAMATPREM",
            ImageURL: "https://via.placeholder.com/300x300?text=Yoga+Mat",
            IsActive: true, Rating: dec("4.1"),
        },
        {
            Name: "Dumbbells Set 10kg", Description: "Adjustable dumbbells for home workout",
            Price: dec("2499"), DiscountPercentage: dec("20"), CategoryID: &categories[4].ID,
            Brand: "PowerFit", StockQuantity: 120, SKU: "DUMBBELL10KG",
            ImageURL: "https://via.placeholder.com/300x300?text=Dumbbells",
            IsActive: true, Rating: dec("4.3"),
        },
    }
    must(0, db.Create(&products).Error)
    fmt.Printf("created %d products\n", len(products))

    addresses := []model.Address{
        {
            UserID: john.ID, AddressType: "home",
            Street: "123 Main Street, Apt 4B", City: "Mumbai", State: "Maharashtra",
            Pincode: "400001", Country: "India", IsDefault: true,
        },
        {
            UserID: john.ID, AddressType: "work",
            Street: "456 Business Park", City: "Mumbai", State: "Maharashtra",
            Pincode: "400002", Country: "India",
        },
    }
    must(0, db.Create(&addresses).Error)
    fmt.Printf("created %d addresses\n", len(addresses))

    fmt.Println("\ndatabase initialized")
    fmt.Println("admin - email: admin@gomall.dev, password: admin123")
    fmt.Println("user1 - email: john@example.com, password: password123")
    fmt.Println("user2 - email: jane@example.com, password: password123")
}
