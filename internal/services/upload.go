package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidFileType = errors.New("invalid file type")
)

// ValidateUpload applies the size and type rules every résumé source shares.
func ValidateUpload(filename string, size, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size)
	}
	if !IsSupportedExtension(UploadedFile{Filename: filename}.Extension()) {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, filename)
	}
	return nil
}

// UploadReader validates an uploaded résumé and loads it into memory. Uploads
// are never written to disk.
type UploadReader interface {
	Read(file *multipart.FileHeader) (UploadedFile, error)
}

type uploadReader struct {
	maxSize int64
}

func NewUploadReader(maxSize int64) UploadReader {
	return &uploadReader{maxSize: maxSize}
}

// Read implements UploadReader.
func (u *uploadReader) Read(file *multipart.FileHeader) (UploadedFile, error) {
	if err := ValidateUpload(file.Filename, file.Size, u.maxSize); err != nil {
		return UploadedFile{}, err
	}
	uploaded := UploadedFile{Filename: file.Filename, Size: file.Size}

	src, err := file.Open()
	if err != nil {
		return UploadedFile{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// one extra byte detects a body larger than the declared size
	content, err := io.ReadAll(io.LimitReader(src, u.maxSize+1))
	if err != nil {
		return UploadedFile{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(content)) > u.maxSize {
		return UploadedFile{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}

	uploaded.Content = content
	uploaded.Size = int64(len(content))
	return uploaded, nil
}
