package mapping

// NullableString maps an empty string to a NULL column.
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue maps a NULL column to an empty string.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
