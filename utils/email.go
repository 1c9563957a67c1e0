package utils

import "strings"

// NormalizeEmail cắt khoảng trắng và hạ chữ thường.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsInstitutionalEmail kiểm tra email kết thúc bằng "@<domain>".
func IsInstitutionalEmail(email, domain string) bool {
	email = NormalizeEmail(email)
	domain = strings.TrimPrefix(NormalizeEmail(domain), "@")
	if domain == "" || email == "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return false
	}
	return email[at+1:] == domain
}
