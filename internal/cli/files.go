package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/entity"
)

// imageTypes расширения снимков, которые принимает бэкенд
var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// errNoImage в ответе нет запрошенного изображения
var errNoImage = errors.New("image is not present in the response")

// contentTypeOf MIME-тип по расширению файла
func contentTypeOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := imageTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

func isImagePath(path string) bool {
	return strings.HasPrefix(contentTypeOf(path), "image/")
}

// loadImage читает снимок с диска. Тип проверяется до чтения.
func loadImage(path string) (entity.ImageFile, error) {
	name := filepath.Base(path)
	contentType := contentTypeOf(path)
	if _, err := entity.NewImageFile(name, contentType, nil); err != nil {
		return entity.ImageFile{}, err
	}

	// #nosec G304 - путь передан пользователем явно
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.ImageFile{}, fmt.Errorf("read image: %w", err)
	}
	return entity.NewImageFile(name, contentType, data)
}

func loadImages(paths []string) ([]entity.ImageFile, error) {
	files := make([]entity.ImageFile, 0, len(paths))
	for _, p := range paths {
		f, err := loadImage(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeExported сохраняет выгруженный файл в каталог и возвращает путь
func writeExported(dir string, f *app.ExportedFile) (string, error) {
	path := filepath.Join(dir, f.Name)
	return path, writeOutput(path, f.Data)
}

// writeBase64 сохраняет изображение из ответа бэкенда
func writeBase64(path string, b64 *string) error {
	data, ok := entity.DecodeImage(b64)
	if !ok {
		return errNoImage
	}
	return writeOutput(path, data)
}
