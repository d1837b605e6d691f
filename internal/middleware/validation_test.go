package middleware

import "testing"

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"normal text", "hello there", false},
		{"invalid utf8", string([]byte{0xff, 0xfe, 0xfd}), true},
		{"too long", string(make([]byte, 100001)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageContent(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessageContent(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTenantID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty", "", true},
		{"normal", "acme-corp", false},
		{"too long", string(make([]byte, 65)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTenantID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTenantID(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
