package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/propertystewards/steward/internal/store"
)

// Message types with special handling.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeVideo = "video"
)

// MediaFetcher downloads inbound media bytes.
type MediaFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// MediaStore persists downloaded media.
type MediaStore interface {
	StoreMedia(ctx context.Context, in store.MediaInput) (uint, error)
}

// Normalized is an inbound message reduced to what the session stores.
type Normalized struct {
	Content string
	MediaID *uint
}

// Normalizer maps raw message data to session content, downloading and
// storing media along the way.
type Normalizer struct {
	fetcher MediaFetcher
	media   MediaStore
	now     func() time.Time
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(fetcher MediaFetcher, media MediaStore, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{fetcher: fetcher, media: media, now: now}
}

// Normalize converts d into content for the inspector's session.
func (n *Normalizer) Normalize(ctx context.Context, inspectorID uint, d MessageData) (Normalized, error) {
	switch d.Type {
	case TypeText:
		return Normalized{Content: d.TextBody()}, nil

	case TypeImage, TypeVideo:
		url := d.MediaURL()
		if url == "" {
			return Normalized{Content: fmt.Sprintf("[Received %s but URL is missing]", d.Type)}, nil
		}
		data, err := n.fetcher.FetchBytes(ctx, url)
		if err != nil {
			return Normalized{}, fmt.Errorf("webhook: download %s: %w", d.Type, err)
		}
		filename := d.mediaFilename()
		if filename == "" {
			filename = fmt.Sprintf("%s_%d", d.Type, n.now().UnixMilli())
		}
		mimetype := d.mediaMimetype()
		if mimetype == "" {
			mimetype = d.Type + "/*"
		}
		id, err := n.media.StoreMedia(ctx, store.MediaInput{
			InspectorID: inspectorID,
			MediaType:   d.Type,
			Filename:    filename,
			Mimetype:    mimetype,
			Data:        data,
		})
		if err != nil {
			return Normalized{}, fmt.Errorf("webhook: store %s: %w", d.Type, err)
		}
		return Normalized{Content: fmt.Sprintf("[Uploaded %s]", d.Type), MediaID: &id}, nil

	default:
		return Normalized{Content: fmt.Sprintf("[Received %s message]", d.Type)}, nil
	}
}
