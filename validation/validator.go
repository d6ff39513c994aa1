// Package validation 提供命令入参的通用校验函数
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"bloggo/errors"
)

// IValidator 定义通用验证器接口
type IValidator interface {
	Validate(value any) error
}

// NoopValidator 默认验证器，实现为空操作
type NoopValidator struct{}

// Validate 实现 IValidator 接口
func (NoopValidator) Validate(value any) error {
	return nil
}

// ValidateRequired 验证必填字段（仅空白字符也视为空）
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must not be blank", fieldName))
	}
	return nil
}

// ValidateStringLength 验证字符串长度（按 rune 计数，max 为 0 表示不限长）
func ValidateStringLength(value, fieldName string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must be at least %d characters, got %d", fieldName, min, length))
	}
	if max > 0 && length > max {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must be at most %d characters, got %d", fieldName, max, length))
	}
	return nil
}

// ValidateIntRange 验证整数范围
func ValidateIntRange(value int, fieldName string, min, max int) error {
	if value < min || value > max {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must be between %d and %d, got %d", fieldName, min, max, value))
	}
	return nil
}
