package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	// Register decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	"devcentral/internal/config"
	"devcentral/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir             = "media"
	DefaultMediaURLPrefix       = "/media"
	DefaultImageMaxUploadSizeMB = 5
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

// Media kinds map to the top-level directories under the media root.
const (
	MediaAvatars = "avatars"
	MediaPosts   = "posts"
)

var maxEdge = map[string]int{
	MediaAvatars: 512,
	MediaPosts:   1440,
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ProcessedImage is an upload that decoded cleanly, normalized and re-encoded.
type ProcessedImage struct {
	Kind   string
	Hash   string
	JPEG   []byte
	WebP   []byte
	Width  int
	Height int
}

// MediaService validates uploaded images and writes them to the media store.
type MediaService struct {
	dir                string
	urlPrefix          string
	maxUploadSizeBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	dir := DefaultMediaDir
	prefix := DefaultMediaURLPrefix
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaDir != "" {
			dir = cfg.MediaDir
		}
		if cfg.MediaURLPrefix != "" {
			prefix = cfg.MediaURLPrefix
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultMediaURLPrefix
	}

	return &MediaService{
		dir:                dir,
		urlPrefix:          prefix,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Dir is the media root on disk.
func (s *MediaService) Dir() string { return s.dir }

// Prefix is the URL path the media root is served under.
func (s *MediaService) Prefix() string { return s.urlPrefix }

// URL returns the public URL of a stored relative path. A nil service uses
// DefaultMediaURLPrefix.
func (s *MediaService) URL(rel string) string {
	if rel == "" {
		return ""
	}
	prefix := DefaultMediaURLPrefix
	if s != nil {
		prefix = s.urlPrefix
	}
	return prefix + "/" + strings.TrimLeft(rel, "/")
}

// Process validates and normalizes an upload for kind without touching disk.
// field names the form field used in validation errors.
func (s *MediaService) Process(kind, field string, in Upload) (*ProcessedImage, error) {
	limit, ok := maxEdge[kind]
	if !ok {
		return nil, models.NewInternalError(fmt.Errorf("unknown media kind %q", kind))
	}
	invalid := func(msg string) error {
		return models.NewFieldValidationError(map[string]string{field: msg})
	}

	if len(in.Content) == 0 {
		return nil, invalid("The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, invalid(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, invalid("Upload a valid image.")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, invalid("Upload a valid image.")
	}

	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return nil, invalid("Unsupported image format.")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, invalid("Image content type mismatch.")
	}

	normalized := resizeToFit(decoded, limit, limit)

	jpg, err := encodeJPEG(normalized, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	wp, err := encodeWebP(normalized, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := normalized.Bounds()
	return &ProcessedImage{
		Kind:   kind,
		Hash:   contentHash(jpg),
		JPEG:   jpg,
		WebP:   wp,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Save writes a processed image under {kind}/{ownerID}/ and returns the
// relative path of the JPEG rendition.
func (s *MediaService) Save(ownerID uint, img *ProcessedImage) (string, error) {
	if img == nil {
		return "", nil
	}
	relDir := path.Join(img.Kind, fmt.Sprintf("%d", ownerID))
	jpgRel := path.Join(relDir, img.Hash+".jpg")
	webpRel := path.Join(relDir, img.Hash+".webp")

	jpgAbs := filepath.Join(s.dir, filepath.FromSlash(jpgRel))
	webpAbs := filepath.Join(s.dir, filepath.FromSlash(webpRel))

	if err := writeBytesToFile(jpgAbs, img.JPEG); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, img.WebP); err != nil {
		cleanupImageFiles([]string{jpgAbs})
		return "", models.NewInternalError(err)
	}
	return jpgRel, nil
}

// Remove deletes a stored image and its WebP sibling. Missing files are ignored.
func (s *MediaService) Remove(rel string) {
	if s == nil || rel == "" || strings.Contains(rel, "..") {
		return
	}
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	cleanupImageFiles([]string{abs, strings.TrimSuffix(abs, filepath.Ext(abs)) + ".webp"})
}

// RemoveOwned deletes every file stored for ownerID.
func (s *MediaService) RemoveOwned(ownerID uint) error {
	if s == nil {
		return nil
	}
	for kind := range maxEdge {
		dir := filepath.Join(s.dir, kind, fmt.Sprintf("%d", ownerID))
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}

	scale := 1.0
	if w > maxWidth || h > maxHeight {
		scale = float64(maxWidth) / float64(w)
		if s := float64(maxHeight) / float64(h); s < scale {
			scale = s
		}
	}

	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	// Redraw onto RGBA even at scale 1.
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality float32) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:16])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
