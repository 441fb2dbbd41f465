package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                     // 主键
	ProductCode string         `gorm:"uniqueIndex;not null" json:"product_code"` // 商品编号
	Name        string         `gorm:"not null" json:"name"`                     // 商品名称
	Description string         `gorm:"type:text" json:"description"`             // 商品描述
	Images      StringArray    `gorm:"type:json" json:"images"`                  // 图片列表
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`      // 是否上架
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间

	Colors []ProductColor `gorm:"foreignKey:ProductID" json:"colors,omitempty"` // 关联颜色
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductColor 商品颜色表
type ProductColor struct {
	ID        uint           `gorm:"primarykey" json:"id"`             // 主键
	ProductID uint           `gorm:"not null;index" json:"product_id"` // 商品ID
	Name      string         `gorm:"not null" json:"name"`             // 颜色名称
	HexCode   string         `gorm:"type:varchar(16)" json:"hex_code"` // 颜色色值
	CreatedAt time.Time      `gorm:"index" json:"created_at"`          // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                   // 软删除时间

	Sizes []ProductSize `gorm:"foreignKey:ColorID" json:"sizes,omitempty"` // 关联尺码
}

// TableName 指定表名
func (ProductColor) TableName() string {
	return "product_colors"
}

// ProductSize 商品尺码表（库存与三币种价格维度）
type ProductSize struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                   // 主键
	ProductID uint           `gorm:"not null;index" json:"product_id"`                       // 商品ID
	ColorID   uint           `gorm:"not null;index" json:"color_id"`                         // 颜色ID
	Name      string         `gorm:"not null" json:"name"`                                   // 尺码名称
	Quantity  int            `gorm:"not null;default:0" json:"quantity"`                     // 可用库存（共享计数器，只允许条件更新）
	PriceUSD  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_usd"` // 美元价格
	PriceTRY  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_try"` // 里拉价格
	PriceSYP  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_syp"` // 叙镑价格
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间
}

// TableName 指定表名
func (ProductSize) TableName() string {
	return "product_sizes"
}

// PriceFor 返回指定币种的标价
func (s ProductSize) PriceFor(currency string) Money {
	switch currency {
	case "USD":
		return s.PriceUSD
	case "SYP":
		return s.PriceSYP
	default:
		return s.PriceTRY
	}
}
