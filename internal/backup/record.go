package backup

// FormatVersion is written into every backup header.
const FormatVersion = 2

// RecordKind is the closed set of shapes a backup line can take.
type RecordKind int

const (
	KindUnknown RecordKind = iota
	KindHeader
	KindSentence
	KindImage
	// KindLegacyImage is an image record from the pre-header archive
	// format. Detection keys on the absence of the type field, not on an
	// unrecognized value.
	KindLegacyImage
)

// Encode-side shapes. Each kind marshals its exact field set; the decoder
// uses the combined record type below instead.
type headerRecord struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Created string `json:"created"`
	Count   int    `json:"count"`
}

type sentenceRecord struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type imageRecord struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Base64 string `json:"base64"`
}

// record is the decode-side superset of all line shapes. Type is a pointer
// so a missing field is distinguishable from an empty one.
type record struct {
	Type    *string `json:"type,omitempty"`
	Version int     `json:"version,omitempty"`
	Created string  `json:"created,omitempty"`
	Count   int     `json:"count,omitempty"`
	ID      string  `json:"id,omitempty"`
	Text    string  `json:"text,omitempty"`
	Base64  string  `json:"base64,omitempty"`
}

func (r record) kind() RecordKind {
	if r.Type == nil {
		if r.ID != "" && r.Base64 != "" {
			return KindLegacyImage
		}
		return KindUnknown
	}
	switch *r.Type {
	case "header":
		return KindHeader
	case "sentence":
		return KindSentence
	case "image":
		if r.ID != "" && r.Base64 != "" {
			return KindImage
		}
		return KindUnknown
	default:
		return KindUnknown
	}
}
