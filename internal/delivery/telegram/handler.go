package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yourusername/pc-builder/internal/usecase"
)

// maxSheetSize largest vendor sheet accepted from chat
const maxSheetSize = 5 * 1024 * 1024

// BotHandler Telegram front-end for compatibility checks and price lookups
type BotHandler struct {
	bot           *tgbotapi.BotAPI
	compatibility usecase.CompatibilityUseCase
	pricing       usecase.PricingUseCase
	catalog       usecase.CatalogUseCase
	isAdmin       func(userID int64) bool
	logger        *slog.Logger

	// users whose next message is a build for /check
	checkMu       sync.RWMutex
	awaitingBuild map[int64]bool
}

// NewBotHandler connects to Telegram with token
func NewBotHandler(
	token string,
	compatibility usecase.CompatibilityUseCase,
	pricing usecase.PricingUseCase,
	catalog usecase.CatalogUseCase,
	isAdmin func(userID int64) bool,
	logger *slog.Logger,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BotHandler{
		bot:           bot,
		compatibility: compatibility,
		pricing:       pricing,
		catalog:       catalog,
		isAdmin:       isAdmin,
		logger:        logger.With("component", "telegram"),
		awaitingBuild: make(map[int64]bool),
	}, nil
}

// Start polls updates until ctx is done
func (h *BotHandler) Start(ctx context.Context) error {
	h.logger.Info("bot started", "username", h.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.logger.Info("bot stopping")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go h.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage routes one incoming message
func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	userID := message.From.ID

	if message.Document != nil {
		h.handleDocumentMessage(ctx, message)
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	if h.isAwaitingBuild(userID) && message.Text != "" {
		h.setAwaitingBuild(userID, false)
		h.runCheck(ctx, message.Chat.ID, message.Text)
		return
	}

	if message.Text != "" {
		h.sendMessage(message.Chat.ID, "Unknown request. /help lists the commands.")
	}
}

// handleCommand dispatches slash commands
func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start", "help":
		h.sendMessage(chatID, helpMessage)
	case "vendors":
		h.sendMessage(chatID, formatVendors(h.pricing.EnabledVendors()))
	case "price":
		h.handlePriceCommand(ctx, chatID, message.CommandArguments())
	case "check":
		h.handleCheckCommand(ctx, message)
	case "catalog":
		h.handleCatalogCommand(ctx, message)
	default:
		h.sendMessage(chatID, "Unknown command. /help lists the commands.")
	}
}

func (h *BotHandler) handlePriceCommand(ctx context.Context, chatID int64, args string) {
	part, err := parsePriceQuery(args)
	if err != nil {
		h.sendMessage(chatID, "Usage: /price <manufacturer> | <model>\nExample: /price AMD | Ryzen 7 7800X3D")
		return
	}
	result := h.pricing.FetchPrices(ctx, part)
	h.sendMessage(chatID, formatPrices(part, result, 5))
}

func (h *BotHandler) handleCheckCommand(ctx context.Context, message *tgbotapi.Message) {
	// the build may follow the command on the next lines
	if _, rest, found := strings.Cut(message.Text, "\n"); found && strings.TrimSpace(rest) != "" {
		h.runCheck(ctx, message.Chat.ID, rest)
		return
	}
	h.setAwaitingBuild(message.From.ID, true)
	h.sendMessage(message.Chat.ID, "Send the build, one component per line:\nCPU: AMD Ryzen 7 7800X3D AM5 120W\nMotherboard: ASUS B650E-I AM5 Mini-ITX DDR5\nGPU: RTX 4070 SUPER 267mm 2.5 slot")
}

func (h *BotHandler) runCheck(ctx context.Context, chatID int64, text string) {
	build, err := parseBuildLines(text)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("Could not read the build: %v", err))
		return
	}
	result, err := h.compatibility.Evaluate(ctx, build, "")
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("Could not check the build: %v", err))
		return
	}
	h.sendMessage(chatID, formatCompatibility(result))
}

func (h *BotHandler) handleCatalogCommand(ctx context.Context, message *tgbotapi.Message) {
	if !h.isAdmin(message.From.ID) {
		h.sendMessage(message.Chat.ID, "This command is for admins only.")
		return
	}
	summary, err := h.catalog.Summary(ctx)
	if err != nil {
		h.logger.Error("catalog summary failed", "error", err)
		h.sendMessage(message.Chat.ID, "Could not read the catalog.")
		return
	}
	h.sendMessage(message.Chat.ID, formatSummary(summary))
}

// handleDocumentMessage admin vendor sheet upload; the caption names the vendor
func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !h.isAdmin(message.From.ID) {
		h.sendMessage(chatID, "Only admins can upload vendor sheets.")
		return
	}

	doc := message.Document
	if doc.FileSize > maxSheetSize {
		h.sendMessage(chatID, "The file must not exceed 5MB.")
		return
	}
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		h.sendMessage(chatID, "Only .xlsx sheets are accepted.")
		return
	}
	vendor := strings.TrimSpace(message.Caption)
	if vendor == "" {
		h.sendMessage(chatID, "Put the vendor name (amazon, newegg, ...) in the file caption.")
		return
	}

	fileBytes, err := h.downloadFile(ctx, doc.FileID)
	if err != nil {
		h.logger.Error("file download failed", "file", doc.FileName, "error", err)
		h.sendMessage(chatID, "Could not download the file.")
		return
	}

	count, err := h.catalog.ImportSheet(ctx, vendor, fileBytes, doc.FileName)
	if err != nil {
		h.logger.Error("sheet import failed", "vendor", vendor, "file", doc.FileName, "error", err)
		h.sendMessage(chatID, fmt.Sprintf("Import failed: %v", err))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("Imported %d listings for %s from %s.", count, strings.ToLower(vendor), doc.FileName))
}

// downloadFile fetches an uploaded file from Telegram
func (h *BotHandler) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := h.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(h.bot.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxSheetSize+1))
}

func (h *BotHandler) isAwaitingBuild(userID int64) bool {
	h.checkMu.RLock()
	defer h.checkMu.RUnlock()
	return h.awaitingBuild[userID]
}

func (h *BotHandler) setAwaitingBuild(userID int64, awaiting bool) {
	h.checkMu.Lock()
	defer h.checkMu.Unlock()
	if awaiting {
		h.awaitingBuild[userID] = true
	} else {
		delete(h.awaitingBuild, userID)
	}
}

// sendMessage plain text reply
func (h *BotHandler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, truncateString(text, 4096))
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("send failed", "chat", chatID, "error", err)
	}
}
