package detector

import "testing"

func TestDetectISO(t *testing.T) {
	det := New()

	tests := []struct {
		text string
		want string
	}{
		{"Il ne faut pas vendre la peau de l'ours avant de l'avoir tué", "FR"},
		{"Не говори гоп, пока не перепрыгнешь", "RU"},
		{"The quick brown fox jumps over the lazy dog", "EN"},
	}

	for _, tt := range tests {
		got, ok := det.DetectISO(tt.text)
		if !ok {
			t.Errorf("DetectISO(%q) could not decide", tt.text)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectISO(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	det := New()
	if _, ok := det.Detect(""); ok {
		t.Error("empty text should not detect")
	}
}
