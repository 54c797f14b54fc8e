package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/models"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrAvatarTooLarge = errors.New("avatar file is too large")
	ErrNotAnImage     = errors.New("avatar is not a supported image")
)

// ProcessAvatar decodes an uploaded image, crops it to a centered square and
// scales it to size x size. The result is always PNG.
func ProcessAvatar(r io.Reader, maxBytes int64, size int) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, ErrAvatarTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, centerSquare(src.Bounds()), draw.Src, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}

// UploadAvatar resizes the upload and stores it as a new asset owned by the
// given user.
func UploadAvatar(ctx context.Context, dbConn db.ConnOrTx, userID int, filename string, r io.Reader) (*models.Asset, error) {
	size := config.Config.Avatars.Size
	content, err := ProcessAvatar(r, config.Config.Avatars.MaxBytes, size)
	if err != nil {
		return nil, err
	}

	return Create(ctx, dbConn, CreateInput{
		Content:     content,
		Filename:    avatarFilename(filename),
		ContentType: "image/png",
		UploaderID:  &userID,
		Width:       size,
		Height:      size,
	})
}

func avatarFilename(original string) string {
	name := SanitizeFilename(original)
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '.' {
			name = name[:i]
			break
		}
	}
	return name + ".png"
}
