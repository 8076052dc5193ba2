package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"

	_ "golang.org/x/image/webp"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/storage"
)

// ImageStore holds uploaded featured images. *storage.Client satisfies it.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(rawURL string) (string, bool)
}

// maxImagePixels bounds the decoded size of an uploaded image.
const maxImagePixels = 50_000_000

// imageTypes maps accepted image MIME types to the stored extension.
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadImage stores a multipart "image" file and makes it the post's
// featured image. The previous image, if stored here, is removed.
func (h *Posts) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeJSON(w, http.StatusServiceUnavailable, "Object storage is not configured.", nil)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	caller := middleware.CallerFromCtx(ctx)
	if err := h.svc.CanModifyPost(ctx, caller, id); err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1024)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large. Maximum size is %d MB.", h.maxUpload>>20), nil)
			return
		}
		writeError(w, r, blog.Invalid("image", "expected a multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, blog.Invalid("image", "no file provided"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Maximum size is %d MB.", h.maxUpload>>20), nil)
		return
	}

	// Type comes from the bytes, never from the client.
	sniff := make([]byte, 512)
	n, err := file.Read(sniff)
	if err != nil && err != io.EOF {
		writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	ext, allowed := imageTypes[contentType]
	if !allowed {
		writeError(w, r, blog.Invalid("image", "allowed types are png, jpg, jpeg, gif, webp"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, r, fmt.Errorf("rewind upload: %w", err))
		return
	}
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		writeError(w, r, blog.Invalid("image", "file is not a readable image"))
		return
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		writeError(w, r, blog.Invalid("image", "image dimensions are too large"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, r, fmt.Errorf("rewind upload: %w", err))
		return
	}

	key := storage.ImageKey(id, ext)
	url, err := h.images.Upload(ctx, key, contentType, file, header.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	post, previous, err := h.svc.SetFeaturedImage(ctx, caller, id, &url)
	if err != nil {
		h.removeImage(ctx, &url)
		writeError(w, r, err)
		return
	}
	h.removeImage(ctx, previous)

	ok(w, "Image uploaded.", h.present.post(post, caller))
}

// removeImage deletes an image this server stored. Foreign URLs are
// skipped and failures are only logged.
func (h *Posts) removeImage(ctx context.Context, url *string) {
	if h.images == nil || url == nil {
		return
	}
	key, ok := h.images.KeyFromURL(*url)
	if !ok {
		return
	}
	if err := h.images.Delete(ctx, key); err != nil {
		slog.Warn("delete image", "key", key, "error", err)
	}
}
