package util

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// FileMD5 流式读取 filePath，返回十六进制摘要；缓存指纹和输出文件名都用它
func FileMD5(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	return readerMD5(f)
}

// BytesMD5 内存中数据的十六进制摘要，与 FileMD5 对同一内容结果一致
func BytesMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func readerMD5(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
