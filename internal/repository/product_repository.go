package repository

import (
	"errors"

	"github.com/assem2023-habib/shehrezad/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品目录数据访问接口
// 目录对本核心是只读参考数据，唯一的写入是受保护的库存扣减/回补。
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetSize(sizeID uint) (*models.ProductSize, error)
	GetSizeForColor(colorID, sizeID uint) (*models.ProductSize, error)
	DeductSizeStock(sizeID uint, quantity int) (int64, error)
	RestoreSizeStock(sizeID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 按ID查询商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetSize 按ID查询尺码
func (r *GormProductRepository) GetSize(sizeID uint) (*models.ProductSize, error) {
	var size models.ProductSize
	err := r.db.First(&size, sizeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &size, nil
}

// GetSizeForColor 查询指定颜色下的尺码
func (r *GormProductRepository) GetSizeForColor(colorID, sizeID uint) (*models.ProductSize, error) {
	var size models.ProductSize
	err := r.db.Where("id = ? AND color_id = ?", sizeID, colorID).First(&size).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &size, nil
}

// DeductSizeStock 受保护的库存扣减（库存不足时零行生效，不允许为负）
func (r *GormProductRepository) DeductSizeStock(sizeID uint, quantity int) (int64, error) {
	if sizeID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock deduct params")
	}
	result := r.db.Model(&models.ProductSize{}).
		Where("id = ? AND quantity >= ?", sizeID, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RestoreSizeStock 回补库存（员工撤销已扣减项时使用）
func (r *GormProductRepository) RestoreSizeStock(sizeID uint, quantity int) (int64, error) {
	if sizeID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock restore params")
	}
	result := r.db.Model(&models.ProductSize{}).
		Where("id = ?", sizeID).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
