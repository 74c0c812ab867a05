package copywriter

// extractJSONObject returns the first balanced {...} span in raw. Text models
// routinely wrap their JSON in prose or ```json fences even when told not to,
// so the parser scans for the object instead of trusting the whole payload.
// Braces inside string literals are accounted for.
func extractJSONObject(raw string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			if start >= 0 {
				inString = !inString
			}
		case '{':
			if inString {
				continue
			}
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if inString || start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
