package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/config"
	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"
)

// SettingService 设置业务服务
// 购物车相关配置带短 TTL 缓存，后台扫描每分钟调用不会打爆设置表。
// 取值顺序：settings 表 > config.yml 的 cart 段 > 内置常量。
type SettingService struct {
	repo     repository.SettingRepository
	defaults cartDefaults

	mu       sync.RWMutex
	cached   models.JSON
	cachedAt time.Time
	cacheTTL time.Duration
}

type cartDefaults struct {
	lockWindowMinutes  int
	reminderWindowDays int
	maxCartItems       int
	referenceCurrency  string
}

// NewSettingService 创建设置服务
// cartCfg 为 nil 或字段非法时退回内置常量。
func NewSettingService(repo repository.SettingRepository, cartCfg *config.CartConfig) *SettingService {
	defaults := cartDefaults{
		lockWindowMinutes:  constants.DefaultLockWindowMinutes,
		reminderWindowDays: constants.DefaultReminderWindowDays,
		maxCartItems:       constants.DefaultMaxCartItems,
		referenceCurrency:  constants.DefaultReferenceCurrency,
	}
	if cartCfg != nil {
		if cartCfg.LockWindowMinutes > 0 {
			defaults.lockWindowMinutes = cartCfg.LockWindowMinutes
		}
		if cartCfg.ReminderWindowDays > 0 {
			defaults.reminderWindowDays = cartCfg.ReminderWindowDays
		}
		if cartCfg.MaxItems > 0 {
			defaults.maxCartItems = cartCfg.MaxItems
		}
		if currency := normalizeCurrency(cartCfg.ReferenceCurrency); currency != "" {
			defaults.referenceCurrency = currency
		}
	}
	return &SettingService{
		repo:     repo,
		defaults: defaults,
		cacheTTL: constants.SettingCacheTTLMinutes * time.Minute,
	}
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 写入设置并失效缓存
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	setting, err := s.repo.Upsert(key, models.JSON(value))
	if err != nil {
		return nil, err
	}
	if key == constants.SettingKeyCartConfig {
		s.Invalidate()
	}
	return setting.ValueJSON, nil
}

// Invalidate 清空购物车配置缓存
func (s *SettingService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.cachedAt = time.Time{}
	s.mu.Unlock()
}

// GetLockWindowMinutes 获取锁定窗口分钟数
func (s *SettingService) GetLockWindowMinutes() int {
	return s.cartConfigInt(constants.SettingFieldLockWindowMinutes, s.defaults.lockWindowMinutes)
}

// GetReminderWindowDays 获取提醒窗口天数
func (s *SettingService) GetReminderWindowDays() int {
	return s.cartConfigInt(constants.SettingFieldReminderWindowDays, s.defaults.reminderWindowDays)
}

// GetMaxCartItems 获取购物车项数上限
func (s *SettingService) GetMaxCartItems() int {
	return s.cartConfigInt(constants.SettingFieldMaxCartItems, s.defaults.maxCartItems)
}

// GetReferenceCurrency 获取参考结算币种
func (s *SettingService) GetReferenceCurrency() string {
	value := s.cartConfig()
	if value == nil {
		return s.defaults.referenceCurrency
	}
	raw, ok := value[constants.SettingFieldReferenceCurrency]
	if !ok {
		return s.defaults.referenceCurrency
	}
	text, ok := raw.(string)
	if !ok {
		return s.defaults.referenceCurrency
	}
	if currency := normalizeCurrency(text); currency != "" {
		return currency
	}
	return s.defaults.referenceCurrency
}

// normalizeCurrency 归一化币种代码，非法返回空串
func normalizeCurrency(raw string) string {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	switch currency {
	case constants.CurrencyUSD, constants.CurrencyTRY, constants.CurrencySYP:
		return currency
	default:
		return ""
	}
}

func (s *SettingService) cartConfigInt(field string, defaultValue int) int {
	value := s.cartConfig()
	if value == nil {
		return defaultValue
	}
	raw, ok := value[field]
	if !ok {
		return defaultValue
	}
	parsed, err := parseSettingInt(raw)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

func (s *SettingService) cartConfig() models.JSON {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.cachedAt) < s.cacheTTL {
		cached := s.cached
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	value, err := s.GetByKey(constants.SettingKeyCartConfig)
	if err != nil {
		return nil
	}
	if value == nil {
		value = models.JSON{}
	}

	s.mu.Lock()
	s.cached = value
	s.cachedAt = time.Now()
	s.mu.Unlock()
	return value
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported setting type %T", value)
	}
}
