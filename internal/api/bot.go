package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "damage-bot/internal/application"
	"damage-bot/internal/container"
	"damage-bot/internal/domain/entity"
)

// Options параметры выдачи результатов
type Options struct {
	PreviewLimit   int   // сколько кадров с повреждениями показывать превью
	PreviewMaxSide uint  // длинная сторона превью в пикселях
	ProgressStep   int   // шаг обновления прогресса в процентах
	MaxUploadBytes int64 // 0 снимает ограничение
}

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	sessions   *app.SessionService
	results    *app.ResultStore
	processing *app.ProcessingService
	opts       Options
	runs       *runRegistry
	log        *zap.Logger
	wg         sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, opts Options, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("authorized on account", zap.String("username", api.Self.UserName))

	return &Bot{
		api:        api,
		sessions:   c.SessionService,
		results:    c.ResultStore,
		processing: c.ProcessingService,
		opts:       opts,
		runs:       newRunRegistry(),
		log:        log,
	}, nil
}

// Run обрабатывает обновления до отмены ctx. Каждое обновление
// обрабатывается в своей горутине; при остановке текущие обработки отменяются.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.runs.cancelAll()
			b.wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return errors.New("updates channel closed")
			}

			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	up := classifyMessage(msg)
	switch up.kind {
	case uploadImage:
		b.handleImage(ctx, msg.Chat.ID, up)
	case uploadVideo:
		b.handleVideo(ctx, msg.Chat.ID, up)
	default:
		b.sendMessage(msg.Chat.ID, msgSendFile)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "result":
		b.handleResultCommand(ctx, chatID)

	case "cancel":
		if b.runs.cancel(chatID) {
			b.sendMessage(chatID, msgCancelled)
		} else {
			b.sendMessage(chatID, msgNothingToCancel)
		}

	case "clear":
		if b.isBusy(ctx, chatID) {
			b.sendMessage(chatID, msgBusy)
			return
		}
		if err := b.results.Release(ctx, chatID, chatID); err != nil {
			b.log.Error("failed to release results", zap.Int64("chat_id", chatID), zap.Error(err))
			b.sendMessage(chatID, msgUnexpected)
			return
		}
		b.sendMessage(chatID, msgCleared)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleResultCommand(ctx context.Context, chatID int64) {
	result, err := b.results.Get(ctx, chatID, chatID)
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	switch r := result.(type) {
	case *entity.VideoResult:
		b.presentVideo(chatID, r)
	case *entity.ImageResult:
		// фото выдаётся один раз, сразу после обработки
		b.sendMessage(chatID, msgImageAlreadySent)
	}
}

// handleImage скачивает фото, прогоняет конвейер и отдаёт результат
func (b *Bot) handleImage(ctx context.Context, chatID int64, up upload) {
	// регистрация держится до конца выдачи результата
	runCtx, done, ok := b.runs.start(ctx, chatID)
	if !ok {
		b.sendMessage(chatID, msgBusy)
		return
	}
	defer done()

	b.sendMessage(chatID, msgProcessingImage)

	body, err := b.openFile(runCtx, up)
	if err != nil {
		b.log.Error("failed to download image", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reportError(chatID, err)
		return
	}
	defer body.Close()

	result, err := b.processing.ProcessImage(runCtx, chatID, chatID, app.ImageUpload{Name: up.name, Data: body})
	if err != nil {
		b.log.Warn("image processing failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reportError(chatID, err)
		return
	}

	b.presentImage(ctx, chatID, result)
}

// handleVideo скачивает видео во временный файл и обрабатывает его покадрово
func (b *Bot) handleVideo(ctx context.Context, chatID int64, up upload) {
	// регистрация держится до конца выдачи результата
	runCtx, done, ok := b.runs.start(ctx, chatID)
	if !ok {
		b.sendMessage(chatID, msgBusy)
		return
	}
	defer done()

	statusID := b.sendMessage(chatID, msgProcessingVideo)

	path, err := b.downloadToTemp(runCtx, up)
	if err != nil {
		b.log.Error("failed to download video", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reportError(chatID, err)
		return
	}

	throttle := newProgressThrottle(b.opts.ProgressStep)
	progress := func(p entity.Progress) {
		if statusID != 0 && throttle.due(p) {
			b.editMessage(chatID, statusID, formatProgress(p))
		}
	}

	source := app.VideoUpload{Name: up.name, Path: path, Temporary: true}
	result, err := b.processing.ProcessVideo(runCtx, chatID, chatID, source, progress)
	if err != nil {
		b.log.Warn("video processing failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reportError(chatID, err)
		return
	}

	b.presentVideo(chatID, result)
}

func (b *Bot) isBusy(ctx context.Context, chatID int64) bool {
	if b.runs.running(chatID) {
		return true
	}
	session, err := b.sessions.Get(ctx, chatID, chatID)
	if err != nil {
		b.log.Error("failed to load session", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	return session.State == entity.StateProcessing
}

func (b *Bot) reportError(chatID int64, err error) {
	b.sendMessage(chatID, userMessage(err, b.opts.MaxUploadBytes/(1024*1024)))
}

// sendMessage отправляет текстовое сообщение и возвращает его ID
func (b *Bot) sendMessage(chatID int64, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return 0
	}
	return sent.MessageID
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Request(edit); err != nil {
		b.log.Debug("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
