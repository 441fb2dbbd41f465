package repository

import (
	"errors"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DebtRepository 客户欠款数据访问接口
type DebtRepository interface {
	GetByID(id uint) (*models.CustomerDebt, error)
	GetByIDForUpdate(id uint) (*models.CustomerDebt, error)
	ListOpenByUser(userID uint) ([]models.CustomerDebt, error)
	ListOpenByUserForUpdate(userID uint) ([]models.CustomerDebt, error)
	ListByUser(userID uint) ([]models.CustomerDebt, error)
	Create(debt *models.CustomerDebt) error
	Update(debt *models.CustomerDebt) error
	CreatePayment(payment *models.DebtPayment) error
	ListPaymentsByUser(userID uint) ([]models.DebtPayment, error)
	SumRemaining(userID uint) (models.Money, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) DebtRepository
}

// GormDebtRepository GORM 实现
type GormDebtRepository struct {
	db *gorm.DB
}

// NewDebtRepository 创建欠款仓库
func NewDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDebtRepository) WithTx(tx *gorm.DB) DebtRepository {
	if tx == nil {
		return r
	}
	return &GormDebtRepository{db: tx}
}

// Transaction 执行事务
func (r *GormDebtRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按 ID 查询欠款
func (r *GormDebtRepository) GetByID(id uint) (*models.CustomerDebt, error) {
	var debt models.CustomerDebt
	err := r.db.First(&debt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// GetByIDForUpdate 行锁查询欠款
func (r *GormDebtRepository) GetByIDForUpdate(id uint) (*models.CustomerDebt, error) {
	var debt models.CustomerDebt
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&debt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// ListOpenByUser 查询用户未结清欠款，按创建时间先进先出
func (r *GormDebtRepository) ListOpenByUser(userID uint) ([]models.CustomerDebt, error) {
	var debts []models.CustomerDebt
	err := r.db.Where("user_id = ? AND status IN ?", userID,
		[]string{constants.DebtStatusPending, constants.DebtStatusPartial}).
		Order("created_at asc, id asc").Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}

// ListOpenByUserForUpdate 行锁版本，分摊付款时使用
func (r *GormDebtRepository) ListOpenByUserForUpdate(userID uint) ([]models.CustomerDebt, error) {
	var debts []models.CustomerDebt
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status IN ?", userID,
			[]string{constants.DebtStatusPending, constants.DebtStatusPartial}).
		Order("created_at asc, id asc").Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}

// ListByUser 查询用户全部欠款记录
func (r *GormDebtRepository) ListByUser(userID uint) ([]models.CustomerDebt, error) {
	var debts []models.CustomerDebt
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}

// Create 创建欠款记录
func (r *GormDebtRepository) Create(debt *models.CustomerDebt) error {
	return r.db.Create(debt).Error
}

// Update 保存欠款记录
func (r *GormDebtRepository) Update(debt *models.CustomerDebt) error {
	return r.db.Save(debt).Error
}

// CreatePayment 记录还款
func (r *GormDebtRepository) CreatePayment(payment *models.DebtPayment) error {
	return r.db.Create(payment).Error
}

// ListPaymentsByUser 查询用户还款记录
func (r *GormDebtRepository) ListPaymentsByUser(userID uint) ([]models.DebtPayment, error) {
	var payments []models.DebtPayment
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// SumRemaining 汇总未结清余额
func (r *GormDebtRepository) SumRemaining(userID uint) (models.Money, error) {
	debts, err := r.ListOpenByUser(userID)
	if err != nil {
		return models.Money{}, err
	}
	total := decimal.Zero
	for _, debt := range debts {
		total = total.Add(debt.Remaining.Decimal)
	}
	return models.NewMoneyFromDecimal(total), nil
}
