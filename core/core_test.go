package core

import (
	"errors"
	"image"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"Awa", "kone", "Awa KONE"},
		{"  Jean ", " d'almeida ", "Jean D'ALMEIDA"},
		{"Élodie", "hervé", "Élodie HERVÉ"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.first, tt.last); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestBadgeModelValidate(t *testing.T) {
	photo := &PhotoSource{Image: image.NewRGBA(image.Rect(0, 0, 1, 1)), Width: 1, Height: 1}

	if err := (BadgeModel{FirstName: "Awa", LastName: "kone", Photo: photo}).Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	cases := map[string]BadgeModel{
		"blank first name": {FirstName: "  ", LastName: "kone", Photo: photo},
		"blank last name":  {FirstName: "Awa", Photo: photo},
		"missing photo":    {FirstName: "Awa", LastName: "kone"},
	}
	for name, m := range cases {
		err := m.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", name, err)
		}
	}

	err := BadgeModel{FirstName: "Awa", LastName: "kone"}.Validate()
	if !errors.Is(err, ErrMissingPhoto) {
		t.Errorf("expected ErrMissingPhoto, got %v", err)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	url := EncodeDataURL("image/png", []byte{1, 2, 3})
	mimeType, data, err := ParseDataURL(url)
	if err != nil {
		t.Fatalf("ParseDataURL() failed: %v", err)
	}
	if mimeType != "image/png" || len(data) != 3 {
		t.Errorf("ParseDataURL() = %q, %v", mimeType, data)
	}

	for _, bad := range []string{"https://example.com/a.png", "data:image/png,abc", "data:image/png;base64"} {
		if _, _, err := ParseDataURL(bad); err == nil {
			t.Errorf("ParseDataURL(%q) should fail", bad)
		}
	}
}

func TestRemoteUnavailableErrorMessage(t *testing.T) {
	err := &RemoteUnavailableError{Endpoint: "http://x", StatusCode: 503}
	if err.Error() != "remote gallery http://x answered with status 503" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
