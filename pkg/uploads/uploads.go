// Package uploads is the media pipeline. Every uploaded file is sniffed,
// size-checked, and structurally validated before it touches storage.
package uploads

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/taleweave/taleweave/pkg/errcodes"
)

const (
	MaxImageSize = 2 << 20 // 2MB
	MaxPDFSize   = 5 << 20 // 5MB

	profilePictureSize = 200
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// SaveImage stores an uploaded image under a random name and returns its
// public URL. When resize is set the image is scaled to a 200x200 JPEG.
func (s *Service) SaveImage(ctx context.Context, category string, fh *multipart.FileHeader, resize bool) (string, error) {
	data, err := readAll(fh, MaxImageSize)
	if err != nil {
		return "", err
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", errcodes.UnsupportedMediaType()
	}
	name := uuid.NewString() + mime.Extension()
	contentType := mime.String()
	if resize {
		data, err = resizeSquareJPEG(data, profilePictureSize)
		if err != nil {
			return "", err
		}
		name = uuid.NewString() + ".jpg"
		contentType = "image/jpeg"
	}
	err = s.store.Save(ctx, category, name, data, contentType)
	if err != nil {
		return "", err
	}
	return s.store.URL(category, name), nil
}

// SavePDF stores an uploaded PDF after verifying it parses as one.
func (s *Service) SavePDF(ctx context.Context, category string, fh *multipart.FileHeader) (string, error) {
	data, err := readAll(fh, MaxPDFSize)
	if err != nil {
		return "", err
	}
	if !mimetype.Detect(data).Is("application/pdf") {
		return "", errcodes.UnsupportedMediaType()
	}
	err = api.Validate(bytes.NewReader(data), nil)
	if err != nil {
		return "", errcodes.BadRequest("The uploaded file is not a valid PDF.")
	}
	name := uuid.NewString() + ".pdf"
	err = s.store.Save(ctx, category, name, data, "application/pdf")
	if err != nil {
		return "", err
	}
	return s.store.URL(category, name), nil
}

func readAll(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if fh.Size > maxSize {
		return nil, errcodes.BadRequest("The uploaded file is too large.")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if int64(len(data)) > maxSize {
		return nil, errcodes.BadRequest("The uploaded file is too large.")
	}
	return data, nil
}

func resizeSquareJPEG(data []byte, size int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errcodes.BadRequest("The uploaded image could not be decoded.")
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}
