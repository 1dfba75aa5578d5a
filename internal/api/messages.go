package telegram

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"text/tabwriter"

	"damage-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для поиска повреждений автомобиля.

📸 Пришлите фото — верну его с рамками и таблицей найденных повреждений.
🎬 Пришлите видео — размечу каждый кадр и соберу кадры с повреждениями.

📋 Команды:
/result — показать последний результат по видео
/cancel — остановить текущую обработку
/clear — удалить сохранённые результаты
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото или видео (можно файлом)
2️⃣ Дождитесь окончания обработки
3️⃣ Для фото придёт размеченное изображение и таблица повреждений
4️⃣ Для видео придёт размеченный ролик, превью кадров с повреждениями и кнопки для скачивания

💡 Рекомендации:
• Снимайте при хорошем освещении
• Держите повреждённую часть в кадре целиком

📋 Команды:
/result — показать последний результат по видео
/cancel — остановить обработку
/clear — удалить результаты`

	msgSendFile         = "📸 Пришлите фото или видео автомобиля."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessingImage  = "⏳ Обрабатываю изображение..."
	msgProcessingVideo  = "⏳ Обрабатываю видео..."
	msgNoDamage         = "✅ Повреждения не обнаружены."
	msgNoDamageInVideo  = "✅ На видео повреждения не обнаружены."
	msgCancelled        = "❌ Обработка отменена."
	msgNothingToCancel  = "ℹ️ Сейчас ничего не обрабатывается."
	msgCleared          = "🧹 Результаты удалены."
	msgResultExpired    = "⌛ Результат больше недоступен. Пришлите видео заново."
	msgImageAlreadySent = "ℹ️ Результат по фото уже отправлен. Пришлите новое фото или видео."
	msgDownloadPrompt   = "📥 Скачать результаты:"
	msgSendFailed       = "⚠️ Не удалось отправить файл. Попробуйте ещё раз."

	msgBusy        = "⏳ Дождитесь окончания текущей обработки или отправьте /cancel."
	msgDecodeError = "⚠️ Не удалось прочитать файл. Пришлите изображение JPEG/PNG или видео."
	msgVideoError  = "⚠️ Не удалось открыть видео. Проверьте формат файла."
	msgModelError  = "⚠️ Модель не смогла обработать файл. Попробуйте позже."
	msgStoreError  = "⚠️ Не удалось сохранить результат. Попробуйте ещё раз."
	msgNoResult    = "ℹ️ Нет готового результата. Пришлите фото или видео."
	msgUnexpected  = "⚠️ Не удалось обработать файл. Попробуйте ещё раз."

	btnDownloadFrames = "📦 Кадры с повреждениями (zip)"
	btnDownloadVideo  = "🎬 Размеченное видео"
)

// errUploadTooLarge файл больше допустимого размера
var errUploadTooLarge = errors.New("upload is too large")

// userMessage переводит ошибку конвейера в ответ пользователю
func userMessage(err error, maxUploadMB int64) string {
	switch {
	case errors.Is(err, entity.ErrSessionBusy):
		return msgBusy
	case errors.Is(err, entity.ErrCancelled):
		return msgCancelled
	case errors.Is(err, entity.ErrUploadDecode):
		return msgDecodeError
	case errors.Is(err, entity.ErrVideoOpen):
		return msgVideoError
	case errors.Is(err, entity.ErrInference):
		return msgModelError
	case errors.Is(err, entity.ErrArtifactIO):
		return msgStoreError
	case errors.Is(err, entity.ErrNoResult):
		return msgNoResult
	case errors.Is(err, errUploadTooLarge):
		return fmt.Sprintf("⚠️ Файл слишком большой, максимум %d МБ.", maxUploadMB)
	default:
		return msgUnexpected
	}
}

// formatDetectionTable таблица детекций для подписи к фото (HTML)
func formatDetectionTable(records []entity.DetectionRecord) string {
	if len(records) == 0 {
		return msgNoDamage
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tТип\tУверенность\tРамка")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, r.Label, r.Confidence, r.BBox)
	}
	tw.Flush()

	return fmt.Sprintf("🔍 Найдено повреждений: %d\n<pre>%s</pre>", len(records), html.EscapeString(buf.String()))
}

// formatVideoSummary подпись к размеченному видео
func formatVideoSummary(result *entity.VideoResult) string {
	return fmt.Sprintf("🎬 Обработано кадров: %d (%.1f fps)\n🔍 Кадров с повреждениями: %d",
		result.FrameCount, result.FPS, len(result.DamageFramePaths))
}

// formatPreviewNote пояснение, если превью показаны не все
func formatPreviewNote(shown, total int) string {
	if shown >= total {
		return ""
	}
	return fmt.Sprintf("🖼 Показаны первые %d из %d кадров с повреждениями.", shown, total)
}

// formatProgress текст сообщения о ходе обработки видео
func formatProgress(p entity.Progress) string {
	if !p.Known {
		return fmt.Sprintf("⏳ Обработано кадров: %d", p.Processed)
	}
	return fmt.Sprintf("⏳ Обработка видео: %d%% (%d/%d кадров)", percent(p), p.Processed, p.Total)
}

func percent(p entity.Progress) int {
	if p.Total <= 0 {
		return 0
	}
	pct := p.Processed * 100 / p.Total
	if pct > 100 {
		pct = 100
	}
	return pct
}
