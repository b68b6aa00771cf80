package domain

import "testing"

func TestNewUser(t *testing.T) {
	user, err := NewUser("Alice_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Name != "alice_42" {
		t.Errorf("expected lowercased name, got %q", user.Name)
	}
	if user.ID == "" {
		t.Error("expected an ID")
	}
}

func TestNewUser_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too short", "a"},
		{"too long", "abcdefghijklmnopqrstuvwxyz0123456789"},
		{"spaces", "al ice"},
		{"leading underscore", "_alice"},
		{"trailing hyphen", "alice-"},
		{"illegal characters", "al!ce"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewUser(tc.raw); err == nil {
				t.Errorf("expected %q to be rejected", tc.raw)
			}
		})
	}
}
