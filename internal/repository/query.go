package repository

import (
	"errors"

	"gorm.io/gorm"
)

const maxPageSize = 200

type scope = func(*gorm.DB) *gorm.DB

// paginate pageSize<=0 表示不分页（导出场景）
func paginate(page, pageSize int) scope {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		pageSize = min(pageSize, maxPageSize)
		page = max(page, 1)
		return db.Limit(pageSize).Offset((page - 1) * pageSize)
	}
}

// findPage 先按过滤条件计数，再取当前页；extra 只作用于取数（预加载等）
func findPage[T any](query *gorm.DB, page, pageSize int, order string, extra ...scope) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0)
	fetch := query.Scopes(append(extra, paginate(page, pageSize))...)
	if err := fetch.Order(order).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// whereEq 零值视为未设置，不追加条件
func whereEq[T comparable](query *gorm.DB, column string, value T) *gorm.DB {
	var zero T
	if value == zero {
		return query
	}
	return query.Where(column+" = ?", value)
}

// firstOrNil 未找到返回 (nil, nil)，由上层决定是否视为错误
func firstOrNil[T any](query *gorm.DB, conds ...interface{}) (*T, error) {
	item := new(T)
	if err := query.First(item, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
