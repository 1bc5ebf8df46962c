package kv

import (
	"bytes"
	"time"

	"github.com/bytedance/sonic"
)

// ttlMagic 带过期信息的值前缀，用于区分普通值与 TTL 信封.
var ttlMagic = []byte("SVTTL1:")

// ttlValue TTL 信封，V 为原始值，E 为过期时间（Unix 纳秒，0 表示不过期）.
type ttlValue struct {
	V []byte `json:"v"`
	E int64  `json:"e"`
}

// encodeWithTTL 把值包装为 TTL 信封，供不支持原生 TTL 的后端使用.
func encodeWithTTL(value []byte, ttl time.Duration) ([]byte, error) {
	var expireAt int64
	if ttl > 0 {
		expireAt = time.Now().Add(ttl).UnixNano()
	}

	payload, err := sonic.Marshal(ttlValue{V: value, E: expireAt})
	if err != nil {
		return nil, err
	}

	return append(append([]byte{}, ttlMagic...), payload...), nil
}

// decodeWithTTL 解析 TTL 信封，返回原始值和是否已过期
// 非信封格式的值原样返回.
func decodeWithTTL(data []byte) (value []byte, expired bool, err error) {
	if !bytes.HasPrefix(data, ttlMagic) {
		return data, false, nil
	}

	var tv ttlValue
	if err := sonic.Unmarshal(data[len(ttlMagic):], &tv); err != nil {
		return nil, false, err
	}

	if tv.E > 0 && time.Now().UnixNano() > tv.E {
		return nil, true, nil
	}

	return tv.V, false, nil
}
