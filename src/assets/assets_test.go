package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "cool_filename.txt.wow", SanitizeFilename("cool filename.txt.wow"))
	assert.Equal(t, "__hi_doggy__", SanitizeFilename("😎 hi doggy 🐶"))
	assert.Equal(t, "newlines_aretotallylegal", SanitizeFilename("newlines\naretotallylegal"))
	assert.Equal(t, "unnamed", SanitizeFilename(""))
}

func TestAvatarFilename(t *testing.T) {
	assert.Equal(t, "me.png", avatarFilename("me.jpg"))
	assert.Equal(t, "my_face.tar.png", avatarFilename("my face.tar.gz"))
	assert.Equal(t, "noext.png", avatarFilename("noext"))
	assert.Equal(t, ".hidden.png", avatarFilename(".hidden"))
}

func TestCenterSquare(t *testing.T) {
	assert.Equal(t, image.Rect(50, 0, 150, 100), centerSquare(image.Rect(0, 0, 200, 100)))
	assert.Equal(t, image.Rect(0, 25, 50, 75), centerSquare(image.Rect(0, 0, 50, 100)))
	assert.Equal(t, image.Rect(10, 10, 20, 20), centerSquare(image.Rect(10, 10, 20, 20)))
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestProcessAvatar(t *testing.T) {
	t.Run("jpeg is resized to a png square", func(t *testing.T) {
		var buf bytes.Buffer
		require.Nil(t, jpeg.Encode(&buf, testImage(320, 200), nil))

		out, err := ProcessAvatar(&buf, 1<<20, 100)
		require.Nil(t, err)

		decoded, err := png.Decode(bytes.NewReader(out))
		require.Nil(t, err)
		assert.Equal(t, 100, decoded.Bounds().Dx())
		assert.Equal(t, 100, decoded.Bounds().Dy())
	})
	t.Run("small images are scaled up", func(t *testing.T) {
		var buf bytes.Buffer
		require.Nil(t, png.Encode(&buf, testImage(10, 30)))

		out, err := ProcessAvatar(&buf, 1<<20, 100)
		require.Nil(t, err)

		cfg, err := png.DecodeConfig(bytes.NewReader(out))
		require.Nil(t, err)
		assert.Equal(t, 100, cfg.Width)
		assert.Equal(t, 100, cfg.Height)
	})
	t.Run("too large", func(t *testing.T) {
		var buf bytes.Buffer
		require.Nil(t, png.Encode(&buf, testImage(64, 64)))

		_, err := ProcessAvatar(&buf, 16, 100)
		assert.ErrorIs(t, err, ErrAvatarTooLarge)
	})
	t.Run("not an image", func(t *testing.T) {
		_, err := ProcessAvatar(strings.NewReader("definitely not a picture"), 1<<20, 100)
		assert.ErrorIs(t, err, ErrNotAnImage)
	})
}
