package generation

import "errors"

var (
	// ErrInvalidInput 表示请求缺少必填字段或字段非法。
	ErrInvalidInput = errors.New("invalid generation input")
)
