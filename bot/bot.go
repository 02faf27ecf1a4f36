package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/locales"
	telegoapi "postsuggest-bot/pkg/telegoapi"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"
)

const (
	defaultRateLimit  = 20
	processingTimeout = 30 * time.Second
)

// Bot represents the main application logic for the Telegram bot.
// It consumes the update stream and dispatches each update to the handlers in its own goroutine.
type Bot struct {
	bot          telegoapi.BotAPI
	updatesChan  <-chan telego.Update
	debug        bool
	handlerProv  HandlerProvider
	callbackProc CallbackProcessor
	ratelimiter  ratelimit.Limiter
	wg           sync.WaitGroup
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	Bot          telegoapi.BotAPI
	UpdatesChan  <-chan telego.Update
	Debug        bool
	HandlerProv  HandlerProvider
	CallbackProc CallbackProcessor
	RateLimit    int // Updates processed per second; defaults to 20.
}

// New creates a new Bot instance from its dependencies.
// Returns the new Bot instance or an error if dependencies are missing.
func New(deps BotDeps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, errors.New("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, errors.New("updates channel cannot be nil")
	}
	if deps.HandlerProv == nil {
		return nil, errors.New("handler provider cannot be nil")
	}
	if deps.CallbackProc == nil {
		return nil, errors.New("callback processor cannot be nil")
	}
	rate := deps.RateLimit
	if rate <= 0 {
		rate = defaultRateLimit
	}

	return &Bot{
		bot:          deps.Bot,
		updatesChan:  deps.UpdatesChan,
		debug:        deps.Debug,
		handlerProv:  deps.HandlerProv,
		callbackProc: deps.CallbackProc,
		ratelimiter:  ratelimit.New(rate),
	}, nil
}

// commandName extracts "ban" from "/ban@my_bot 42".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}

// handleCommandUpdate processes a message identified as a command.
func (b *Bot) handleCommandUpdate(ctx context.Context, message telego.Message) {
	command := commandName(message.Text)
	if command == "" {
		command = "unknown"
	}
	logPrefix := fmt.Sprintf("[Cmd:%s User:%d]", command, message.From.ID)

	handlerFunc := b.handlerProv.GetCommandHandler(command)
	if handlerFunc == nil {
		log.Printf("%s No handler found", logPrefix)
		localizer := locales.ForLanguage(message.From.LanguageCode)
		unknownCmdMsg := locales.GetMessage(localizer, "MsgErrorUnknownCommand", nil, nil)
		if _, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), unknownCmdMsg)); err != nil {
			log.Printf("%s Failed to send unknown command message: %v", logPrefix, err)
		}
		return
	}

	if b.debug {
		log.Printf("%s Executing handler", logPrefix)
	}
	if err := handlerFunc(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	} else if b.debug {
		log.Printf("%s Handler finished successfully", logPrefix)
	}
}

// handlePhotoUpdate processes an incoming photo message.
func (b *Bot) handlePhotoUpdate(ctx context.Context, message telego.Message) {
	logPrefix := fmt.Sprintf("[Photo User:%d Msg:%d]", message.From.ID, message.MessageID)
	if b.debug {
		log.Printf("%s Processing photo", logPrefix)
	}
	if err := b.handlerProv.HandlePhoto(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handleVideoUpdate processes an incoming video message.
func (b *Bot) handleVideoUpdate(ctx context.Context, message telego.Message) {
	logPrefix := fmt.Sprintf("[Video User:%d Msg:%d]", message.From.ID, message.MessageID)
	if b.debug {
		log.Printf("%s Processing video", logPrefix)
	}
	if err := b.handlerProv.HandleVideo(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handleCallbackQuery processes an incoming callback query.
// Recognized queries are answered by the processor; unknown ones get a default answer here.
func (b *Bot) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) {
	logPrefix := fmt.Sprintf("[Callback User:%d QueryID:%s]", query.From.ID, query.ID)
	if b.debug {
		log.Printf("%s Received callback query with data: %q", logPrefix, query.Data)
	}

	processed, err := b.callbackProc.HandleCallbackQuery(ctx, query)
	if err != nil {
		log.Printf("%s Callback handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s callback handler error: %w", logPrefix, err))
		return
	}
	if processed {
		if b.debug {
			log.Printf("%s Callback handled", logPrefix)
		}
		return
	}

	log.Printf("%s Callback query not handled", logPrefix)
	localizer := locales.ForLanguage(query.From.LanguageCode)
	defaultAnswer := locales.GetMessage(localizer, "MsgCallbackNotHandled", nil, nil)
	if err := b.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: query.ID, Text: defaultAnswer}); err != nil {
		log.Printf("%s Failed to answer callback query: %v", logPrefix, err)
	}
}

// processUpdate routes incoming updates to the appropriate handlers.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, processingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil { // Channel posts and service messages have no sender
			if b.debug {
				log.Printf("Ignoring message %d from chat %d without sender", message.MessageID, message.Chat.ID)
			}
			return
		}

		switch {
		case strings.HasPrefix(message.Text, "/"):
			b.handleCommandUpdate(processingCtx, message)
		case len(message.Photo) > 0:
			b.handlePhotoUpdate(processingCtx, message)
		case message.Video != nil:
			b.handleVideoUpdate(processingCtx, message)
		default:
			if b.debug {
				log.Printf("Ignoring unhandled message type (ID: %d)", message.MessageID)
			}
		}

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(processingCtx, *update.CallbackQuery)

	default:
		if b.debug {
			log.Printf("Ignoring unhandled update type (ID: %d)", update.UpdateID)
		}
	}
}

// Start runs the update processing loop until ctx is cancelled or the update channel is closed.
// It waits for in-flight updates before returning.
func (b *Bot) Start(ctx context.Context) {
	log.Println("Listening for updates...")

	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			b.wg.Wait()
			log.Println("All update processing finished.")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				b.wg.Wait()
				return
			}
			b.wg.Add(1)
			go func(up telego.Update) {
				defer b.wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}

// Stop waits for in-flight updates. Polling itself stops when the context passed to Start is cancelled.
func (b *Bot) Stop() {
	log.Println("Bot Stop method called, waiting for in-flight updates...")
	b.wg.Wait()
}
