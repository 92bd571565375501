package utils

import "encoding/json"

// ToJSONString 把对象序列化为JSON字符串，失败或为空时返回空字符串
func ToJSONString(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
