package validation

import (
	"strings"
	"testing"

	"bloggo/errors"
)

// TestValidateRequired 测试必填验证
func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "有效值", value: "hello", wantErr: false},
		{name: "空字符串", value: "", wantErr: true},
		{name: "空格字符串", value: "   ", wantErr: true},
		{name: "带前后空格的有效值", value: "  hello  ", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.value, "field")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateStringLength 测试字符串长度验证
func TestValidateStringLength(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		min     int
		max     int
		wantErr bool
	}{
		{name: "有效长度", value: "hello", min: 3, max: 10, wantErr: false},
		{name: "长度太短", value: "ab", min: 3, max: 10, wantErr: true},
		{name: "长度太长", value: "abcdefghijk", min: 3, max: 10, wantErr: true},
		{name: "最小边界值", value: "abc", min: 3, max: 10, wantErr: false},
		{name: "最大边界值", value: "abcdefghij", min: 3, max: 10, wantErr: false},
		{name: "按字符而非字节计数", value: "你好世界", min: 1, max: 4, wantErr: false},
		{name: "无最大限制", value: strings.Repeat("a", 1000), min: 3, max: 0, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStringLength(tt.value, "field", tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStringLength() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateIntRange 测试整数范围验证
func TestValidateIntRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{name: "有效范围", value: 50, wantErr: false},
		{name: "小于最小值", value: 0, wantErr: true},
		{name: "大于最大值", value: 101, wantErr: true},
		{name: "最小边界", value: 1, wantErr: false},
		{name: "最大边界", value: 100, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntRange(tt.value, "count", 1, 100)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIntRange() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidationErrorCode 测试验证错误返回正确的错误码
func TestValidationErrorCode(t *testing.T) {
	err := ValidateRequired("", "field")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("error code = %s, want %s", errors.CodeOf(err), errors.ErrCodeValidation)
	}
}
