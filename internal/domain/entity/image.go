package entity

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURLPrefix префикс data URI; DecodeImage принимает base64 с ним и без него
const DataURLPrefix = "data:image/png;base64,"

// ImageFile изображение, выбранное пользователем для отправки.
type ImageFile struct {
	Name        string // имя файла
	ContentType string // заявленный MIME-тип
	Data        []byte // содержимое
}

// NewImageFile проверяет тип файла при выборе. Содержимое не анализируется,
// решение принимается только по заявленному MIME-типу.
func NewImageFile(name, contentType string, data []byte) (ImageFile, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(ct, "image/") {
		return ImageFile{}, fmt.Errorf("%s (%q): %w", name, contentType, ErrNotImage)
	}
	return ImageFile{Name: name, ContentType: ct, Data: data}, nil
}

// Size возвращает размер файла в байтах
func (f ImageFile) Size() int {
	return len(f.Data)
}

// IsEmpty сообщает, что файл не выбран.
func (f ImageFile) IsEmpty() bool {
	return f.Name == "" && len(f.Data) == 0
}

// DecodeImage декодирует base64-изображение из ответа.
func DecodeImage(b64 *string) ([]byte, bool) {
	if b64 == nil || *b64 == "" {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(*b64, DataURLPrefix))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
