package core

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		fileName string
		want     Modality
	}{
		{"photo.png", ModalityImage},
		{"photo.jpg", ModalityImage},
		{"photo.jpeg", ModalityImage},
		{"report.pdf", ModalityDocument},
		{"letter.doc", ModalityDocument},
		{"letter.docx", ModalityDocument},
		{"call.wav", ModalityAudio},
		{"call.mp3", ModalityAudio},

		// default
		{"notes.txt", ModalityDocument},
		{"sheet.xlsx", ModalityDocument},
		{"no-extension", ModalityDocument},
		{"", ModalityDocument},
		{".", ModalityDocument},

		// case-sensitive
		{"PHOTO.PNG", ModalityDocument},
		{"call.Mp3", ModalityDocument},

		// only the final extension counts
		{"archive.png.pdf", ModalityDocument},
		{"report.pdf.mp3", ModalityAudio},
		{"scan.jpg.bak", ModalityDocument},

		// directories do not leak into the extension
		{"uploads.png/readme", ModalityDocument},
		{"uploads/2024/photo.jpeg", ModalityImage},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			if got := Classify(tt.fileName); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	for _, name := range []string{"a.png", "b.pdf", "c.mp3", "d.unknown"} {
		first := Classify(name)
		for i := 0; i < 10; i++ {
			if got := Classify(name); got != first {
				t.Fatalf("Classify(%q) changed from %v to %v", name, first, got)
			}
		}
	}
}

func TestModalityString(t *testing.T) {
	tests := []struct {
		m    Modality
		want string
	}{
		{ModalityImage, "image"},
		{ModalityDocument, "document"},
		{ModalityAudio, "audio"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
