package generic

import (
	"reflect"
)

// IsEmpty is empty
func IsEmpty(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)

	switch v.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice:
		return v.Len() == 0

	case reflect.Ptr:
		if v.IsNil() {
			return true
		}
		ref := v.Elem().Interface()
		return IsEmpty(ref)

	default:
		zero := reflect.Zero(v.Type())
		return reflect.DeepEqual(i, zero.Interface())
	}
}

// ConvertEmptyToNil convert empty to nil
// แปลงค่าว่างเป็น nil ใช้กับ field ที่ไม่ต้องแสดงเมื่อไม่มีค่า
func ConvertEmptyToNil[T comparable](v T) *T {
	if IsEmpty(v) {
		return nil
	}

	return &v
}
