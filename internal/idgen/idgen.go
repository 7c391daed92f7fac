package idgen

import "github.com/oklog/ulid/v2"

// New 生成按时间单调递增的 ULID 字符串，用作各实体主键
func New() string {
	return ulid.Make().String()
}
