package utils

func ToStringPtr(s string) *string {
	return &s
}

func ToFloat64Ptr(f float64) *float64 {
	return &f
}

func ToBoolPtr(b bool) *bool {
	return &b
}
