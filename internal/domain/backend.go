package domain

// Citation is one source-document reference backing part of a backend
// answer.
type Citation struct {
	FileID string
	Quote  string // excerpt the backend attached; may be empty
	Marker string // inline marker text within the answer
}

// Answer is the backend's response to a search query: the assistant's
// answer text and the citations backing it, in backend order.
type Answer struct {
	Text      string
	Citations []Citation
}

// FileInfo is document metadata held by the backend.
type FileInfo struct {
	ID        string
	Filename  string
	Purpose   string
	Bytes     int
	CreatedAt int64
}
