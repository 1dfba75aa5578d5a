package telegram

import (
	"context"
	"os"
	"path/filepath"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/infrastructure/vision"
)

const (
	callbackFramesZip = "download:frames"
	callbackVideo     = "download:video"

	archiveName = "damage_frames.zip"

	// ограничения Telegram
	captionLimit   = 1024
	mediaGroupSize = 10
)

// presentImage отправляет размеченное фото с таблицей и удаляет файл.
// Результат по фото выдаётся один раз.
func (b *Bot) presentImage(ctx context.Context, chatID int64, result *entity.ImageResult) {
	table := formatDetectionTable(result.Records)

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(result.AnnotatedImagePath))
	fitsCaption := utf8.RuneCountInString(table) <= captionLimit
	if fitsCaption {
		photo.Caption = table
		photo.ParseMode = tgbotapi.ModeHTML
	}

	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("failed to send annotated image", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, msgSendFailed)
	} else if !fitsCaption {
		b.sendHTML(chatID, table)
	}

	if err := b.results.ConsumeImageArtifact(ctx, chatID, chatID, result); err != nil {
		b.log.Warn("failed to consume image artifact", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// presentVideo отправляет размеченное видео, превью первых кадров с
// повреждениями и кнопки скачивания. Файлы остаются до замены результата.
func (b *Bot) presentVideo(chatID int64, result *entity.VideoResult) {
	b.sendVideo(chatID, result)

	if !result.HasDamageFrames() {
		b.sendMessage(chatID, msgNoDamageInVideo)
	} else {
		shown := b.sendPreviews(chatID, result.DamageFramePaths)
		if note := formatPreviewNote(shown, len(result.DamageFramePaths)); note != "" {
			b.sendMessage(chatID, note)
		}
	}

	msg := tgbotapi.NewMessage(chatID, msgDownloadPrompt)
	msg.ReplyMarkup = downloadKeyboard(result)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send download buttons", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// downloadKeyboard кнопки скачивания; архив кадров только если они есть
func downloadKeyboard(result *entity.VideoResult) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if result.HasDamageFrames() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnDownloadFrames, callbackFramesZip)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnDownloadVideo, callbackVideo)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) sendVideo(chatID int64, result *entity.VideoResult) {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(result.AnnotatedVideoPath))
	video.Caption = formatVideoSummary(result)
	video.SupportsStreaming = true

	if _, err := b.api.Send(video); err != nil {
		b.log.Error("failed to send annotated video",
			zap.Int64("chat_id", chatID),
			zap.String("path", result.AnnotatedVideoPath),
			zap.Error(err),
		)
		b.sendMessage(chatID, msgSendFailed)
	}
}

// sendPreviews отправляет уменьшенные копии первых кадров и возвращает,
// сколько кадров показано.
func (b *Bot) sendPreviews(chatID int64, paths []string) int {
	limit := b.opts.PreviewLimit
	if limit > len(paths) {
		limit = len(paths)
	}

	var media []interface{}
	for _, path := range paths[:limit] {
		data, err := vision.Thumbnail(path, b.opts.PreviewMaxSide)
		if err != nil {
			b.log.Warn("failed to build preview", zap.String("path", path), zap.Error(err))
			continue
		}
		media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileBytes{Name: filepath.Base(path), Bytes: data}))
	}

	for start := 0; start < len(media); start += mediaGroupSize {
		end := start + mediaGroupSize
		if end > len(media) {
			end = len(media)
		}
		b.sendMediaGroup(chatID, media[start:end])
	}
	return limit
}

func (b *Bot) sendMediaGroup(chatID int64, media []interface{}) {
	var err error
	if len(media) == 1 {
		// группа из одного элемента Telegram не принимает
		photo := media[0].(tgbotapi.InputMediaPhoto)
		_, err = b.api.Send(tgbotapi.NewPhoto(chatID, photo.Media))
	} else {
		_, err = b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	}
	if err != nil {
		b.log.Error("failed to send previews", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleCallback обрабатывает кнопки скачивания
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", zap.Error(err))
	}
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	result, err := b.results.Get(ctx, chatID, chatID)
	video, ok := result.(*entity.VideoResult)
	if err != nil || !ok {
		b.sendMessage(chatID, msgResultExpired)
		return
	}

	switch cq.Data {
	case callbackFramesZip:
		if !video.HasDamageFrames() {
			b.sendMessage(chatID, msgNoDamageInVideo)
			return
		}
		b.sendFramesArchive(chatID, video)
	case callbackVideo:
		b.sendVideo(chatID, video)
	default:
		b.log.Warn("unknown callback", zap.String("data", cq.Data))
	}
}

func (b *Bot) sendFramesArchive(chatID int64, video *entity.VideoResult) {
	err := b.results.PackageFramesAsArchive(video.DamageFramePaths, func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: archiveName, Reader: f})
		_, err = b.api.Send(doc)
		return err
	})
	if err != nil {
		b.log.Error("failed to send frames archive", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, msgSendFailed)
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
