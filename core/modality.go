package core

import "path"

// Modality is the content category of a document. It decides which
// extraction service handles the document.
type Modality int

const (
	// ModalityDocument is the default for any unrecognized extension.
	ModalityDocument Modality = iota
	ModalityImage
	ModalityAudio
)

// String returns the lowercase modality name.
func (m Modality) String() string {
	switch m {
	case ModalityImage:
		return "image"
	case ModalityAudio:
		return "audio"
	default:
		return "document"
	}
}

var modalityByExtension = map[string]Modality{
	".png":  ModalityImage,
	".jpg":  ModalityImage,
	".jpeg": ModalityImage,
	".pdf":  ModalityDocument,
	".doc":  ModalityDocument,
	".docx": ModalityDocument,
	".wav":  ModalityAudio,
	".mp3":  ModalityAudio,
}

// Classify maps a file name to its modality by its final extension.
// Matching is case-sensitive, so "scan.PNG" is a Document.
func Classify(fileName string) Modality {
	if m, ok := modalityByExtension[path.Ext(fileName)]; ok {
		return m
	}
	return ModalityDocument
}
