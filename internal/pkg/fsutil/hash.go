package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// HashLength 指纹长度（十六进制字符数）
const HashLength = 16

// HashBytes 计算内容指纹：SHA-256 十六进制截断
// 仅用于文件身份比较，不作完整性校验
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:HashLength]
}

// HashFile 读取文件并计算指纹
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(content), nil
}
