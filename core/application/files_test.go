package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    FileHeader
		docType DocumentType
		wantErr string
	}{
		{
			name:    "valid photo",
			file:    FileHeader{Name: "me.webp", Size: 1024, ContentType: "image/webp"},
			docType: DocPhoto,
		},
		{
			name:    "valid pdf marksheet",
			file:    FileHeader{Name: "10th.pdf", Size: MaxFileSize, ContentType: "application/pdf"},
			docType: DocMarksheet10th,
		},
		{
			name:    "too large",
			file:    FileHeader{Name: "big.pdf", Size: 6 * 1024 * 1024, ContentType: "application/pdf"},
			docType: DocIDProof,
			wantErr: "File size exceeds 5MB limit. Your file is 6.00MB.",
		},
		{
			name:    "one byte over",
			file:    FileHeader{Name: "big.png", Size: MaxFileSize + 1, ContentType: "image/png"},
			docType: DocOther,
			wantErr: "File size exceeds 5MB limit. Your file is 5.00MB.",
		},
		{
			name:    "pdf photo",
			file:    FileHeader{Name: "me.pdf", Size: 10, ContentType: "application/pdf"},
			docType: DocPhoto,
			wantErr: "Invalid file type. Allowed types for photo: image/jpeg, image/png, image/webp",
		},
		{
			name:    "webp id proof",
			file:    FileHeader{Name: "id.webp", Size: 10, ContentType: "image/webp"},
			docType: DocIDProof,
			wantErr: "Invalid file type. Allowed types for id_proof: image/jpeg, image/png, application/pdf",
		},
		{
			name:    "traversal",
			file:    FileHeader{Name: "../../etc/passwd.pdf", Size: 10, ContentType: "application/pdf"},
			docType: DocOther,
			wantErr: invalidFileNameMsg,
		},
		{
			name:    "unsafe char",
			file:    FileHeader{Name: "what?.png", Size: 10, ContentType: "image/png"},
			docType: DocOther,
			wantErr: invalidFileNameMsg,
		},
		{
			name:    "only dots",
			file:    FileHeader{Name: ".", Size: 10, ContentType: "image/png"},
			docType: DocOther,
			wantErr: invalidFileNameMsg,
		},
		{
			name:    "size checked first",
			file:    FileHeader{Name: "../x", Size: MaxFileSize * 2, ContentType: "text/plain"},
			docType: DocOther,
			wantErr: "File size exceeds 5MB limit. Your file is 10.00MB.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, tt.docType)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Equal(t, tt.wantErr, err.(*core.ValidationError).FieldMap()[string(tt.docType)])
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "marksheet.pdf", want: "marksheet.pdf"},
		{name: "unix path", in: "/home/me/docs/photo.png", want: "photo.png"},
		{name: "windows path", in: `C:\Users\me\photo.png`, want: "photo.png"},
		{name: "unsafe chars", in: `a<b>c:d"e|f?g*.pdf`, want: "abcdefg.pdf"},
		{name: "dot dot", in: "x..y.pdf", want: "xy.pdf"},
		{name: "hidden", in: ".env", want: "_env"},
		{name: "spaces", in: "  report.pdf  ", want: "report.pdf"},
		{name: "traversal", in: "../../etc/passwd", want: "passwd"},
		{name: "trailing separator", in: "docs/photo.png/", want: "photo.png"},
		{name: "only separators", in: "../../", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFileName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "/")
			assert.NotContains(t, got, `\`)
			assert.NotContains(t, got, "..")
		})
	}
}

func TestDocumentPath(t *testing.T) {
	assert.Equal(t, "u1/a1/photo_1700000000000", DocumentPath("u1", "a1", DocPhoto, 1700000000000))
}
