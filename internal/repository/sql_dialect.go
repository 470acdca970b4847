package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// jsonTextExpr 构建 JSON 字段文本提取表达式，兼容 sqlite 与 postgres。
func jsonTextExpr(db *gorm.DB, column, key string) string {
	return jsonTextExprByDialect(dbDialectName(db), column, key)
}

func jsonTextExprByDialect(dialect, column, key string) string {
	switch dialect {
	case "postgres", "postgresql":
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	default:
		return fmt.Sprintf("json_extract(%s, '$.%s')", column, key)
	}
}

// jsonArrayNonEmptyExpr 判断 JSON 数组字段非空
func jsonArrayNonEmptyExpr(db *gorm.DB, column, key string) string {
	switch dbDialectName(db) {
	case "postgres", "postgresql":
		return fmt.Sprintf("COALESCE(jsonb_array_length(%s::jsonb -> '%s'), 0) > 0", column, key)
	default:
		return fmt.Sprintf("COALESCE(json_array_length(%s, '$.%s'), 0) > 0", column, key)
	}
}

// likeCondition 构建多列模糊匹配条件（postgres 使用 ILIKE）
func likeCondition(db *gorm.DB, keyword string, columns ...string) (string, []interface{}) {
	operator := "LIKE"
	if name := dbDialectName(db); name == "postgres" || name == "postgresql" {
		operator = "ILIKE"
	}
	like := "%" + keyword + "%"
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("%s %s ?", column, operator))
		args = append(args, like)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
