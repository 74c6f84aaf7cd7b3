package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/presenter"
)

// errDownload файл не удалось получить из Telegram
var errDownload = errors.New("telegram download failed")

// incomingImage достаёт снимок из сообщения: фото или документ с MIME-типом изображения.
// ok=false, если в сообщении нет ни того, ни другого.
func (b *Bot) incomingImage(ctx context.Context, msg *tgbotapi.Message) (entity.ImageFile, bool, error) {
	switch {
	case len(msg.Photo) > 0:
		// Файл с максимальным разрешением
		photo := msg.Photo[len(msg.Photo)-1]
		data, err := b.downloadFile(ctx, photo.FileID)
		if err != nil {
			return entity.ImageFile{}, true, err
		}
		file, err := entity.NewImageFile("photo_"+photo.FileUniqueID+".jpg", "image/jpeg", data)
		return file, true, err

	case msg.Document != nil:
		doc := msg.Document
		// Тип проверяется до скачивания
		if _, err := entity.NewImageFile(doc.FileName, doc.MimeType, nil); err != nil {
			return entity.ImageFile{}, true, err
		}
		data, err := b.downloadFile(ctx, doc.FileID)
		if err != nil {
			return entity.ImageFile{}, true, err
		}
		file, err := entity.NewImageFile(doc.FileName, doc.MimeType, data)
		return file, true, err
	}
	return entity.ImageFile{}, false, nil
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("%w: get file: %w", errDownload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.token), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errDownload, err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download file: %w", errDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errDownload, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %w", errDownload, err)
	}

	return data, nil
}

// sendMessage отправляет текст, разбивая длинные сообщения
func (b *Bot) sendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			b.logger.Error("send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

// sendPhoto отправляет изображение. Длинная подпись уходит отдельным сообщением.
func (b *Bot) sendPhoto(chatID int64, name string, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	long := len([]rune(caption)) > maxCaptionLength
	if !long {
		photo.Caption = caption
	}
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("send photo", "chat_id", chatID, "error", err)
		return
	}
	if long {
		b.sendMessage(chatID, caption)
	}
}

// sendDocument отправляет выгруженный файл
func (b *Bot) sendDocument(chatID int64, file *app.ExportedFile) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: file.Name, Bytes: file.Data})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("send document", "chat_id", chatID, "file", file.Name, "error", err)
	}
}

// sendPanelWithImage присылает панель подписью к изображению из ответа, либо текстом
func (b *Bot) sendPanelWithImage(chatID int64, panel presenter.Panel, name string, b64 *string) {
	text := presenter.RenderText(panel)
	if data, ok := entity.DecodeImage(b64); ok {
		b.sendPhoto(chatID, name, data, text)
		return
	}
	b.sendMessage(chatID, text)
}
