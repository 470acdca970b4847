package service

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/campusdash/internal/config"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// 上传场景
const (
	UploadSceneProduct = "product"
	UploadSceneProof   = "proof"
	UploadSceneCommon  = "common"
)

var allowedUploadScenes = map[string]struct{}{
	UploadSceneProduct: {},
	UploadSceneProof:   {},
	UploadSceneCommon:  {},
}

const (
	defaultProofMaxEdge     = 1600
	defaultProofJPEGQuality = 82
)

// UploadService 文件上传服务
type UploadService struct {
	cfg config.UploadConfig
	now func() time.Time
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg config.UploadConfig) *UploadService {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = "uploads"
	}
	return &UploadService{cfg: cfg, now: time.Now}
}

// SaveFile 原样保存上传文件（商品图等）
func (s *UploadService) SaveFile(file *multipart.FileHeader, scene string) (string, error) {
	src, ext, err := s.openValidated(file)
	if err != nil {
		return "", err
	}
	defer src.Close()

	relPath, absPath, err := s.targetPath(normalizeUploadScene(scene), ext)
	if err != nil {
		return "", err
	}
	dst, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return relPath, nil
}

// SaveProofImage 保存付款凭证：解码、按 EXIF 方向校正、限制最长边后统一重编码为 JPEG
func (s *UploadService) SaveProofImage(file *multipart.FileHeader) (string, error) {
	src, _, err := s.openValidated(file)
	if err != nil {
		return "", err
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadInvalid, err)
	}
	maxEdge := s.cfg.ProofMaxEdge
	if maxEdge <= 0 {
		maxEdge = defaultProofMaxEdge
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}
	quality := s.cfg.ProofJPEGQuality
	if quality <= 0 || quality > 100 {
		quality = defaultProofJPEGQuality
	}

	relPath, absPath, err := s.targetPath(UploadSceneProof, ".jpg")
	if err != nil {
		return "", err
	}
	dst, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if err := imaging.Encode(dst, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", err
	}
	return relPath, nil
}

// openValidated 校验大小、扩展名、MIME 与图片尺寸，返回重置到开头的文件
func (s *UploadService) openValidated(file *multipart.FileHeader) (multipart.File, string, error) {
	if file == nil {
		return nil, "", ErrUploadInvalid
	}
	if s.cfg.MaxSize > 0 && file.Size > s.cfg.MaxSize {
		return nil, "", fmt.Errorf("%w: max %d bytes", ErrUploadTooLarge, s.cfg.MaxSize)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.AllowedExtensions) {
			return nil, "", fmt.Errorf("%w: extension %s", ErrUploadInvalid, ext)
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	fail := func(err error) (multipart.File, string, error) {
		_ = src.Close()
		return nil, "", err
	}

	// 读取文件头部识别 MIME 类型
	buffer := make([]byte, 512)
	if _, err := src.Read(buffer); err != nil && err != io.EOF {
		return fail(err)
	}
	contentType := http.DetectContentType(buffer)
	if len(s.cfg.AllowedTypes) > 0 {
		allowed := false
		for _, t := range s.cfg.AllowedTypes {
			if strings.EqualFold(contentType, t) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fail(fmt.Errorf("%w: content type %s", ErrUploadInvalid, contentType))
		}
	}

	if strings.HasPrefix(contentType, "image/") {
		width, height, err := decodeImageDimensions(src, contentType)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrUploadInvalid, err))
		}
		if s.cfg.MaxWidth > 0 && width > s.cfg.MaxWidth {
			return fail(fmt.Errorf("%w: width %d", ErrUploadTooLarge, width))
		}
		if s.cfg.MaxHeight > 0 && height > s.cfg.MaxHeight {
			return fail(fmt.Errorf("%w: height %d", ErrUploadTooLarge, height))
		}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}
	return src, ext, nil
}

// targetPath 生成 <dir>/<scene>/<yyyy>/<mm>/<uuid><ext>，返回对外路径与磁盘路径
func (s *UploadService) targetPath(scene, ext string) (string, string, error) {
	now := s.now()
	year := now.Format("2006")
	month := now.Format("01")
	filename := uuid.New().String() + ext
	absPath := filepath.Join(s.cfg.Dir, scene, year, month, filename)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", "", err
	}
	// 对外路径由 /uploads 静态路由提供
	return fmt.Sprintf("/uploads/%s/%s/%s/%s", scene, year, month, filename), absPath, nil
}

func normalizeUploadScene(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return UploadSceneCommon
	}
	if _, ok := allowedUploadScenes[value]; ok {
		return value
	}
	return UploadSceneCommon
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		width, height, err := decodeWebPDimensions(src)
		if err != nil {
			return 0, 0, fmt.Errorf("decode webp: %w", err)
		}
		return width, height, nil
	}

	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("invalid webp header")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		if chunkSize < 0 {
			return 0, 0, fmt.Errorf("invalid webp chunk")
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(src, data); err != nil {
			return 0, 0, err
		}

		if chunkType == "VP8X" {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("short VP8X chunk")
			}
			width := 1 + int(data[4]) + int(data[5])<<8 + int(data[6])<<16
			height := 1 + int(data[7]) + int(data[8])<<8 + int(data[9])<<16
			return width, height, nil
		}
		if chunkType == "VP8 " {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("short VP8 chunk")
			}
			width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
			height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
			return width, height, nil
		}
		if chunkType == "VP8L" {
			if len(data) < 5 {
				return 0, 0, fmt.Errorf("short VP8L chunk")
			}
			if data[0] != 0x2f {
				return 0, 0, fmt.Errorf("invalid VP8L signature")
			}
			bits := binary.LittleEndian.Uint32(data[1:5])
			width := int(bits&0x3FFF) + 1
			height := int((bits>>14)&0x3FFF) + 1
			return width, height, nil
		}

		if chunkSize%2 == 1 {
			if _, err := src.Seek(1, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
		}
	}
}
