package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
)

const (
	avatarRenderSize = 512
	avatarFinalSize  = 256
)

// avatarPalette backs the deterministic background color choice; the same
// email always renders the same color.
var avatarPalette = []color.NRGBA{
	{R: 0x1A, G: 0xBC, B: 0x9C, A: 0xFF},
	{R: 0x2E, G: 0x86, B: 0xC1, A: 0xFF},
	{R: 0x8E, G: 0x44, B: 0xAD, A: 0xFF},
	{R: 0xE6, G: 0x7E, B: 0x22, A: 0xFF},
	{R: 0xC0, G: 0x39, B: 0x2B, A: 0xFF},
	{R: 0x16, G: 0xA0, B: 0x85, A: 0xFF},
	{R: 0x2C, G: 0x3E, B: 0x50, A: 0xFF},
}

// AvatarService renders an initials avatar for a new user and stores it in
// the local media directory.
type AvatarService interface {
	CreateUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
	log      *logger.Logger
	mediaDir string
	fontFace font.Face
}

// NewAvatarService loads the TTF font used for initials. An empty fontPath
// disables avatar rendering and returns a nil service.
func NewAvatarService(log *logger.Logger, mediaDir, fontPath string) (AvatarService, error) {
	if strings.TrimSpace(fontPath) == "" {
		log.Info("AVATAR_FONT not set, avatar rendering disabled")
		return nil, nil
	}
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read avatar font: %w", err)
	}
	ttf, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse avatar font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: 220})
	return &avatarService{
		log:      log.With("service", "AvatarService"),
		mediaDir: mediaDir,
		fontFace: face,
	}, nil
}

func (as *avatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bg := avatarPalette[hashString(user.Email)%uint32(len(avatarPalette))]

	dc := gg.NewContext(avatarRenderSize, avatarRenderSize)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetFontFace(as.fontFace)
	dc.SetRGB255(0xFF, 0xFF, 0xFF)
	dc.DrawStringAnchored(initialsOf(user), avatarRenderSize/2, avatarRenderSize/2, 0.5, 0.5)

	final := image.NewRGBA(image.Rect(0, 0, avatarFinalSize, avatarFinalSize))
	draw.CatmullRom.Scale(final, final.Bounds(), dc.Image(), dc.Image().Bounds(), draw.Over, nil)

	dir := filepath.Join(as.mediaDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create avatar dir: %w", err)
	}
	path := filepath.Join(dir, user.ID.String()+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create avatar file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, final); err != nil {
		return fmt.Errorf("encode avatar: %w", err)
	}

	user.AvatarURL = "/media/avatars/" + user.ID.String() + ".png"
	as.log.Debug("Avatar rendered", "user_id", user.ID)
	return nil
}

func initialsOf(user *types.User) string {
	var b strings.Builder
	for _, part := range []string{user.FirstName, user.LastName} {
		part = strings.TrimSpace(part)
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]))
		}
	}
	if b.Len() == 0 && user.Email != "" {
		b.WriteString(strings.ToUpper(user.Email[:1]))
	}
	return b.String()
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
