package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IdentifierLength 公开标识与存储文件名前缀的长度
const IdentifierLength = 16

// GenerateIdentifier 生成 URL 安全的随机标识
func GenerateIdentifier() (string, error) {
	return gonanoid.New(IdentifierLength)
}
