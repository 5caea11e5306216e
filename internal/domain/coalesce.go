package domain

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// CoalesceFloat returns a copy of the first non-nil *float64, or nil.
func CoalesceFloat(ptrs ...*float64) *float64 {
	for _, p := range ptrs {
		if p != nil {
			v := *p
			return &v
		}
	}
	return nil
}
