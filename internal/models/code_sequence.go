package models

// CodeSequence 按日编号计数器
// 以 (prefix, date_key) 为主键做条件自增，替代读最大值再插入的竞态写法。
type CodeSequence struct {
	Prefix  string `gorm:"primarykey;type:varchar(8)" json:"prefix"`   // 编号前缀
	DateKey string `gorm:"primarykey;type:varchar(8)" json:"date_key"` // 日期键（YYYYMMDD）
	Value   int64  `gorm:"not null;default:0" json:"value"`            // 当前序号
}

// TableName 指定表名
func (CodeSequence) TableName() string {
	return "code_sequences"
}
