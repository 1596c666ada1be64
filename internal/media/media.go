// Package media validates image references attached to issue reports and,
// when object storage is configured, moves inline uploads into it.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"civicvoice/api/internal/store"
)

const (
	MaxImageSize   = 5 * 1024 * 1024
	MaxImagesCount = 3
)

var (
	ErrImageTooLarge    = &store.Error{Kind: store.KindValidation, Code: "IMAGE_TOO_LARGE", Message: "image size should be less than 5MB"}
	ErrNotAnImage       = &store.Error{Kind: store.KindValidation, Code: "NOT_AN_IMAGE", Message: "please upload an image file"}
	ErrInvalidReference = &store.Error{Kind: store.KindValidation, Code: "INVALID_IMAGE_REFERENCE", Message: "image must be an http(s) URL or a base64 data URL"}
	ErrTooManyImages    = &store.Error{Kind: store.KindValidation, Code: "TOO_MANY_IMAGES", Message: fmt.Sprintf("at most %d images per issue", MaxImagesCount)}
)

// Image is a decoded inline upload.
type Image struct {
	ContentType string
	Data        []byte
}

// ParseDataURL decodes a base64 data URL and checks it is an image no larger
// than MaxImageSize. Both the declared and the sniffed type must be image/*.
func ParseDataURL(ref string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), "data:")
	if !ok {
		return Image{}, ErrInvalidReference
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return Image{}, ErrInvalidReference
	}
	declared := strings.ToLower(strings.TrimSuffix(header, ";base64"))
	if !strings.HasPrefix(declared, "image/") {
		return Image{}, ErrNotAnImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+3 {
		return Image{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, ErrInvalidReference
	}
	if len(data) > MaxImageSize {
		return Image{}, ErrImageTooLarge
	}
	if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, "image/") {
		return Image{}, ErrNotAnImage
	}
	return Image{ContentType: declared, Data: data}, nil
}

// Uploader stores an image and returns its public URL. Remove deletes an
// object previously returned by Upload.
type Uploader interface {
	Upload(ctx context.Context, img Image) (string, error)
	Remove(ctx context.Context, location string) error
	Ping(ctx context.Context) error
}

// Service turns client image references into the strings stored on issues.
type Service struct {
	uploader Uploader
}

// NewService creates a media service. uploader may be nil, in which case
// inline images are kept as data URLs.
func NewService(uploader Uploader) *Service {
	return &Service{uploader: uploader}
}

// Pending is a validated image reference that has not been stored yet.
type Pending struct {
	ref string
	img *Image
}

// Batch is the result of storing a prepared image list.
type Batch struct {
	Refs     []string
	uploaded []string
}

// Prepare validates a report's image list without storing anything. Blank
// entries are skipped.
func Prepare(refs []string) ([]Pending, error) {
	if len(refs) > MaxImagesCount {
		return nil, ErrTooManyImages
	}
	out := make([]Pending, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		p, err := prepare(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func prepare(ref string) (Pending, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "data:") {
		img, err := ParseDataURL(ref)
		if err != nil {
			return Pending{}, err
		}
		return Pending{ref: ref, img: &img}, nil
	}
	parsed, err := url.Parse(ref)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Pending{}, ErrInvalidReference
	}
	return Pending{ref: ref}, nil
}

// Store uploads the inline images of a prepared list. When an upload fails
// the images already uploaded are removed again.
func (s *Service) Store(ctx context.Context, pending []Pending) (Batch, error) {
	batch := Batch{Refs: make([]string, 0, len(pending))}
	for _, p := range pending {
		if p.img == nil || s.uploader == nil {
			batch.Refs = append(batch.Refs, p.ref)
			continue
		}
		location, err := s.uploader.Upload(ctx, *p.img)
		if err != nil {
			s.Discard(context.WithoutCancel(ctx), batch)
			return Batch{}, fmt.Errorf("upload image: %w", err)
		}
		batch.Refs = append(batch.Refs, location)
		batch.uploaded = append(batch.uploaded, location)
	}
	return batch, nil
}

// Discard removes the objects a batch uploaded. Failures are logged.
func (s *Service) Discard(ctx context.Context, batch Batch) {
	if s.uploader == nil {
		return
	}
	for _, location := range batch.uploaded {
		if err := s.uploader.Remove(ctx, location); err != nil {
			log.Printf("media: remove %s: %v", location, err)
		}
	}
}

// Accept validates and stores one reference. Remote http(s) URLs pass
// through; data URLs are uploaded when an uploader is configured.
func (s *Service) Accept(ctx context.Context, ref string) (string, error) {
	p, err := prepare(ref)
	if err != nil {
		return "", err
	}
	batch, err := s.Store(ctx, []Pending{p})
	if err != nil {
		return "", err
	}
	return batch.Refs[0], nil
}

// Ping checks the object store, if one is configured.
func (s *Service) Ping(ctx context.Context) error {
	if s.uploader == nil {
		return nil
	}
	return s.uploader.Ping(ctx)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
