package main

import (
	"time"

	"github.com/assem2023-habib/shehrezad/internal/config"
	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	seedUsers(stdLog.Printf)
	seedProducts(stdLog.Printf)
	seedCoupons(stdLog.Printf)
	seedSettings(stdLog.Printf)

	stdLog.Printf("Seed finished")
}

func seedUsers(printf func(string, ...interface{})) {
	today := time.Now().Format("20060102")
	users := []struct {
		code     string
		name     string
		phone    string
		email    string
		password string
		role     string
	}{
		{"CUS-" + today + "-00001", "Amina Khalil", "+90 530 111 2233", "amina@example.com", "customer123", "customer"},
		{"CUS-" + today + "-00002", "Omar Haddad", "+90 530 444 5566", "omar@example.com", "customer123", "customer"},
		{"CUS-" + today + "-00003", "Leila Saab", "+90 530 777 8899", "leila@shehrezad.local", "staff123", "staff"},
	}

	for _, u := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", u.email).First(&existing).Error; err == nil {
			printf("User already exists: %s", u.email)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			printf("Failed to hash password for %s: %v", u.email, err)
			continue
		}
		user := models.User{
			CustomerCode: u.code,
			Name:         u.name,
			Phone:        u.phone,
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			Status:       constants.UserStatusActive,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			printf("Failed to create user %s: %v", u.email, err)
			continue
		}
		printf("Created user: %s (%s)", u.email, u.role)
	}
}

func seedProducts(printf func(string, ...interface{})) {
	type sizeSeed struct {
		name     string
		quantity int
		usd      string
		try      string
		syp      string
	}
	type colorSeed struct {
		name  string
		hex   string
		sizes []sizeSeed
	}
	products := []struct {
		code        string
		name        string
		description string
		colors      []colorSeed
	}{
		{
			code:        "PRD-0001",
			name:        "Classic Abaya",
			description: "Lightweight everyday abaya",
			colors: []colorSeed{
				{name: "Black", hex: "#000000", sizes: []sizeSeed{
					{name: "S", quantity: 10, usd: "35.00", try: "1200.00", syp: "450000.00"},
					{name: "M", quantity: 8, usd: "35.00", try: "1200.00", syp: "450000.00"},
					{name: "L", quantity: 5, usd: "38.00", try: "1300.00", syp: "480000.00"},
				}},
				{name: "Navy", hex: "#1B2A4A", sizes: []sizeSeed{
					{name: "M", quantity: 6, usd: "36.00", try: "1250.00", syp: "460000.00"},
				}},
			},
		},
		{
			code:        "PRD-0002",
			name:        "Embroidered Scarf",
			description: "Hand embroidered scarf",
			colors: []colorSeed{
				{name: "Cream", hex: "#F2E8D5", sizes: []sizeSeed{
					{name: "One Size", quantity: 25, usd: "12.00", try: "420.00", syp: "160000.00"},
				}},
			},
		},
	}

	for _, p := range products {
		var existing models.Product
		if err := models.DB.Where("product_code = ?", p.code).First(&existing).Error; err == nil {
			printf("Product already exists: %s", p.code)
			continue
		}
		product := models.Product{
			ProductCode: p.code,
			Name:        p.name,
			Description: p.description,
			IsActive:    true,
		}
		for _, c := range p.colors {
			color := models.ProductColor{Name: c.name, HexCode: c.hex}
			for _, s := range c.sizes {
				color.Sizes = append(color.Sizes, models.ProductSize{
					Name:     s.name,
					Quantity: s.quantity,
					PriceUSD: mustMoney(s.usd),
					PriceTRY: mustMoney(s.try),
					PriceSYP: mustMoney(s.syp),
				})
			}
			product.Colors = append(product.Colors, color)
		}
		if err := models.DB.Create(&product).Error; err != nil {
			printf("Failed to create product %s: %v", p.code, err)
			continue
		}
		printf("Created product: %s", p.code)
	}

	// 尺码上的 ProductID 依赖颜色入库后的回填
	models.DB.Exec("UPDATE product_sizes SET product_id = (SELECT product_id FROM product_colors WHERE product_colors.id = product_sizes.color_id) WHERE product_id = 0")
}

func seedCoupons(printf func(string, ...interface{})) {
	now := time.Now()
	end := now.AddDate(0, 3, 0)
	maxDiscount := mustMoney("50.00")
	usageLimit := 100

	coupons := []models.Coupon{
		{
			Code:               "WELCOME10",
			DiscountType:       constants.CouponTypePercentage,
			DiscountValue:      mustMoney("10"),
			MaxDiscountAmount:  &maxDiscount,
			StartDate:          &now,
			EndDate:            &end,
			UsageLimit:         &usageLimit,
			Status:             constants.CouponStatusActive,
			TargetAudience:     constants.CouponAudienceAll,
			TargetProductsType: constants.CouponProductsAll,
		},
		{
			Code:               "FLAT5",
			DiscountType:       constants.CouponTypeFixed,
			DiscountValue:      mustMoney("5.00"),
			StartDate:          &now,
			EndDate:            &end,
			Status:             constants.CouponStatusActive,
			TargetAudience:     constants.CouponAudienceAll,
			TargetProductsType: constants.CouponProductsAll,
		},
	}

	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err == nil {
			printf("Coupon already exists: %s", coupon.Code)
			continue
		}
		if err := models.DB.Create(&coupon).Error; err != nil {
			printf("Failed to create coupon %s: %v", coupon.Code, err)
			continue
		}
		printf("Created coupon: %s", coupon.Code)
	}
}

func seedSettings(printf func(string, ...interface{})) {
	var existing models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeyCartConfig).First(&existing).Error; err == nil {
		printf("Setting already exists: %s", constants.SettingKeyCartConfig)
		return
	}
	setting := models.Setting{
		Key: constants.SettingKeyCartConfig,
		ValueJSON: models.JSON{
			"lock_window_minutes":  constants.DefaultLockWindowMinutes,
			"reminder_window_days": constants.DefaultReminderWindowDays,
			"max_cart_items":       constants.DefaultMaxCartItems,
			"reference_currency":   constants.CurrencyTRY,
		},
	}
	if err := models.DB.Create(&setting).Error; err != nil {
		printf("Failed to create setting %s: %v", constants.SettingKeyCartConfig, err)
		return
	}
	printf("Created setting: %s", constants.SettingKeyCartConfig)
}

func mustMoney(value string) models.Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return models.NewMoneyFromDecimal(d)
}
