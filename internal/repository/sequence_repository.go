package repository

import (
	"github.com/assem2023-habib/shehrezad/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository 按日编号计数器访问接口
type SequenceRepository interface {
	Next(prefix, dateKey string) (int64, error)
	WithTx(tx *gorm.DB) SequenceRepository
}

// GormSequenceRepository GORM 实现
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository 创建编号计数器仓库
func NewSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSequenceRepository) WithTx(tx *gorm.DB) SequenceRepository {
	if tx == nil {
		return r
	}
	return &GormSequenceRepository{db: tx}
}

// Next 原子地取下一个序号
// upsert 自增后行锁读回，同一事务内串行化，并发插入不会把事务打进 aborted 状态。
func (r *GormSequenceRepository) Next(prefix, dateKey string) (int64, error) {
	var value int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "prefix"}, {Name: "date_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value": gorm.Expr("code_sequences.value + 1"),
			}),
		}).Create(&models.CodeSequence{Prefix: prefix, DateKey: dateKey, Value: 1}).Error
		if err != nil {
			return err
		}
		var seq models.CodeSequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND date_key = ?", prefix, dateKey).
			First(&seq).Error; err != nil {
			return err
		}
		value = seq.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
